package http

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/charismabi/handson/internal/authapi"
	"github.com/charismabi/handson/internal/clipping"
	"github.com/charismabi/handson/internal/company"
	"github.com/charismabi/handson/internal/files"
	"github.com/charismabi/handson/internal/ident"
	"github.com/charismabi/handson/internal/manager"
	"github.com/charismabi/handson/internal/provision"
	"github.com/charismabi/handson/internal/register"
	"github.com/charismabi/handson/internal/util"
)

// writeServiceError traduz erros de domínio em status HTTP. Erros sem
// mapeamento viram 500 e o texto original fica só no log.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	writePartial(w, r, nil, err)
}

// writePartial escreve o erro junto com o que o lote já aplicou antes da
// falha. data nil equivale a writeServiceError.
func writePartial(w http.ResponseWriter, r *http.Request, data any, err error) {
	status, body := classify(r, err)
	writeEnvelope(w, status, data, &body)
}

func classify(r *http.Request, err error) (int, ErrorBody) {
	var ve *util.ValidationError
	var upstream *authapi.Error

	switch {
	case errors.As(err, &ve):
		var details any
		if len(ve.Fields) > 0 {
			details = ve.Fields
		}
		return http.StatusBadRequest, ErrorBody{Code: "VALIDATION", Message: ve.Message, Details: details}
	case errors.Is(err, ident.ErrInvalid), errors.Is(err, provision.ErrInvalid):
		return http.StatusBadRequest, ErrorBody{Code: "VALIDATION", Message: err.Error()}
	case errors.Is(err, manager.ErrProtected):
		return http.StatusForbidden, ErrorBody{Code: "FORBIDDEN", Message: err.Error()}
	case errors.Is(err, provision.ErrNotFound),
		errors.Is(err, register.ErrNotFound),
		errors.Is(err, company.ErrNotFound),
		errors.Is(err, clipping.ErrNotFound),
		errors.Is(err, files.ErrNotFound),
		errors.Is(err, files.ErrNoData):
		return http.StatusNotFound, ErrorBody{Code: "NOT_FOUND", Message: err.Error()}
	case errors.Is(err, provision.ErrConflict), errors.Is(err, company.ErrConflict):
		return http.StatusConflict, ErrorBody{Code: "CONFLICT", Message: err.Error()}
	case errors.Is(err, register.ErrMirrorFailed):
		return http.StatusServiceUnavailable, ErrorBody{Code: "MIRROR_FAILED", Message: "clipping indisponível, o registro que falhou não foi alterado"}
	case errors.As(err, &upstream):
		if upstream.Status >= 400 && upstream.Status < 500 {
			return upstream.Status, ErrorBody{Code: "AUTH_SERVICE", Message: "serviço de autenticação recusou a requisição", Details: upstream.Body}
		}
		log.Error().Err(err).Str("path", r.URL.Path).Msg("serviço de autenticação falhou")
		return http.StatusBadGateway, ErrorBody{Code: "AUTH_SERVICE", Message: "serviço de autenticação indisponível"}
	}
	log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("erro interno")
	return http.StatusInternalServerError, ErrorBody{Code: "INTERNAL", Message: "erro interno"}
}

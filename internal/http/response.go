package http

import (
	"encoding/json"
	"net/http"

	"github.com/charismabi/handson/internal/db"
)

// SuccessEnvelope padroniza respostas com dados.
type SuccessEnvelope struct {
	Data  any `json:"data"`
	Error any `json:"error"`
}

// ErrorEnvelope padroniza respostas de erro. Data pode vir preenchido quando
// parte da operação foi aplicada.
type ErrorEnvelope struct {
	Data  any        `json:"data"`
	Error *ErrorBody `json:"error"`
}

// ErrorBody descreve falhas normalizadas.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// WriteJSON escreve envelope de sucesso.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(SuccessEnvelope{Data: data, Error: nil})
}

// WriteError escreve envelope de erro e mantém formato consistente.
func WriteError(w http.ResponseWriter, status int, code, message string, details any) {
	writeEnvelope(w, status, nil, &ErrorBody{Code: code, Message: message, Details: details})
}

func writeEnvelope(w http.ResponseWriter, status int, data any, body *ErrorBody) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorEnvelope{Data: data, Error: body})
}

// pageBody monta {total_records, page_size, current_offset, <key>}.
func pageBody[T any](l db.Listing[T], key string) map[string]any {
	items := l.Items
	if items == nil {
		items = []T{}
	}
	return map[string]any{
		"total_records":  l.Total,
		"page_size":      l.Page.Limit,
		"current_offset": l.Page.Offset,
		key:              items,
	}
}

func message(text string, extra ...any) map[string]any {
	out := map[string]any{"message": text}
	for i := 0; i+1 < len(extra); i += 2 {
		if k, ok := extra[i].(string); ok {
			out[k] = extra[i+1]
		}
	}
	return out
}

package http

import (
	"net/http"

	"github.com/rs/zerolog/log"

	httpmiddleware "github.com/charismabi/handson/internal/http/middleware"
)

// audit registra quem pediu a exclusão definitiva.
func audit(r *http.Request, action string, targets []string) {
	log.Warn().
		Str("subject", httpmiddleware.GetSubject(r.Context())).
		Str("action", action).
		Strs("targets", targets).
		Msg("exclusão definitiva")
}

func (h *Handler) DeleteTable(w http.ResponseWriter, r *http.Request) {
	var p tablesPayload
	if err := decodeJSON(w, r, &p); err != nil {
		writeServiceError(w, r, err)
		return
	}

	var dropped []string
	err := p.each(func(schema, table string) error {
		ref, err := h.manager.DeleteTable(r.Context(), schema, table)
		if err != nil {
			return err
		}
		dropped = append(dropped, ref.String())
		return nil
	})
	if err != nil {
		audit(r, "delete-table", dropped)
		writePartial(w, r, applied("tables", dropped, len(dropped)), err)
		return
	}
	audit(r, "delete-table", dropped)
	WriteJSON(w, http.StatusOK, message("tabelas removidas", "tables", dropped))
}

func (h *Handler) DeleteSchema(w http.ResponseWriter, r *http.Request) {
	var p schemasPayload
	if err := decodeJSON(w, r, &p); err != nil {
		writeServiceError(w, r, err)
		return
	}

	dropped := make([]string, 0, len(p.Schemas))
	for _, s := range p.Schemas {
		name, err := h.manager.DeleteSchema(r.Context(), s.SchemaName)
		if err != nil {
			audit(r, "delete-schema", dropped)
			writePartial(w, r, applied("schemas", dropped, len(dropped)), err)
			return
		}
		dropped = append(dropped, name)
	}
	audit(r, "delete-schema", dropped)
	WriteJSON(w, http.StatusOK, message("schemas removidos", "schemas", dropped))
}

func (h *Handler) DeleteColumn(w http.ResponseWriter, r *http.Request) {
	var p columnsPayload
	if err := decodeJSON(w, r, &p); err != nil {
		writeServiceError(w, r, err)
		return
	}

	var dropped []string
	err := p.each(func(schema, table string) error {
		for _, c := range p.Columns {
			col, err := h.manager.DeleteColumn(r.Context(), schema, table, c.ColumnName)
			if err != nil {
				return err
			}
			dropped = append(dropped, col)
		}
		return nil
	})
	if err != nil {
		audit(r, "delete-column", dropped)
		writePartial(w, r, applied("columns", dropped, len(dropped)), err)
		return
	}
	audit(r, "delete-column", dropped)
	WriteJSON(w, http.StatusOK, message("colunas removidas", "columns", dropped))
}

// MigrateCompanyTable cria a tabela company no hands-on se ainda não existir.
func (h *Handler) MigrateCompanyTable(w http.ResponseWriter, r *http.Request) {
	if err := h.provision.MigrateCompanyTable(r.Context()); err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, message("tabela company migrada com sucesso"))
}

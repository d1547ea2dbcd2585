package http

import (
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/charismabi/handson/internal/files"
	"github.com/charismabi/handson/internal/util"
)

func decodeItems(w http.ResponseWriter, r *http.Request) ([]files.Item, error) {
	var items []files.Item
	if err := decodeBody(w, r, &items); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, util.Invalid("insira dados válidos")
	}
	return items, nil
}

// UploadClipping recebe a planilha convertida em JSON e grava clipping e hands-on.
func (h *Handler) UploadClipping(w http.ResponseWriter, r *http.Request) {
	schema, err := requiredQuery(r, "schema_name")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	companyID, err := positiveIntQuery(r, "company_id_clipping")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	items, err := decodeItems(w, r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	report, err := h.files.UploadClipping(r.Context(), schema, chi.URLParam(r, "table_name"), companyID, items)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, message("dados salvos com sucesso", "data", report.Saved))
}

func (h *Handler) UploadHandsOn(w http.ResponseWriter, r *http.Request) {
	schema, err := requiredQuery(r, "schema_name")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	companyID, err := positiveIntQuery(r, "company_id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	items, err := decodeItems(w, r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	report, err := h.files.UploadHandsOn(r.Context(), schema, chi.URLParam(r, "table_name"), companyID, items)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	skipped := report.Skipped
	if skipped == nil {
		skipped = []int{}
	}
	WriteJSON(w, http.StatusCreated, message("dados salvos com sucesso", "data", report.Saved, "skipped", skipped))
}

// Export devolve a planilha xlsx como anexo.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	schema, err := requiredQuery(r, "schema_name")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	table, err := requiredQuery(r, "table_name")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	q := r.URL.Query()
	wb, err := h.files.Export(r.Context(), schema, table, q.Get("start_date"), q.Get("end_date"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": wb.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(wb.Body)))
	if wb.Archived != "" {
		w.Header().Set("X-Archive-Location", wb.Archived)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(wb.Body)
}

// CombinedData pagina a tabela dinâmica com as notícias correspondentes.
func (h *Handler) CombinedData(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromQuery(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	listing, err := h.files.Combined(r.Context(), chi.URLParam(r, "schema_name"), chi.URLParam(r, "table_name"), page)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, pageBody(listing, "data"))
}

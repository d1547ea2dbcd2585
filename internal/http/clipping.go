package http

import (
	"net/http"
)

func (h *Handler) ActiveClippingCompanies(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromQuery(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	listing, err := h.clipping.ListActive(r.Context(), page)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, pageBody(listing, "active_companies"))
}

func (h *Handler) InactiveClippingCompanies(w http.ResponseWriter, r *http.Request) {
	page, err := pageFromQuery(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	listing, err := h.clipping.ListInactive(r.Context(), page)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, pageBody(listing, "deactivated_companies"))
}

// TransferCompany copia uma empresa ativa do clipping para o hands-on.
func (h *Handler) TransferCompany(w http.ResponseWriter, r *http.Request) {
	name, err := requiredQuery(r, "company_name")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	id, err := h.clipping.TransferCompany(r.Context(), name)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, message("empresa transferida com sucesso", "company_id", id))
}

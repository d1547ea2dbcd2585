package http

import (
	"context"
	"net/http"

	"github.com/charismabi/handson/internal/company"
	"github.com/charismabi/handson/internal/db"
)

func (h *Handler) listCompanies(w http.ResponseWriter, r *http.Request, fn func(context.Context, db.Page) (db.Listing[company.Company], error), key string) {
	page, err := pageFromQuery(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	listing, err := fn(r.Context(), page)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, pageBody(listing, key))
}

func (h *Handler) GetCompany(w http.ResponseWriter, r *http.Request) {
	h.listCompanies(w, r, h.companies.ListActive, "companies")
}

func (h *Handler) TrashCompany(w http.ResponseWriter, r *http.Request) {
	h.listCompanies(w, r, h.companies.ListInactive, "inactive_companies")
}

// InsertCompany cria as empresas do lote, parando na primeira falha.
func (h *Handler) InsertCompany(w http.ResponseWriter, r *http.Request) {
	var p companyPayload
	if err := decodeJSON(w, r, &p); err != nil {
		writeServiceError(w, r, err)
		return
	}

	ids := make([]int, 0, len(p.Company))
	for _, c := range p.Company {
		id, err := h.companies.Create(r.Context(), company.CreateInput{Name: c.Name, CNPJ: c.CNPJ, Email: c.Email})
		if err != nil {
			writePartial(w, r, applied("ids", ids, len(ids)), err)
			return
		}
		ids = append(ids, id)
	}
	WriteJSON(w, http.StatusCreated, message("empresa criada com sucesso", "ids", ids))
}

func (h *Handler) UpdateCompany(w http.ResponseWriter, r *http.Request) {
	var p companyUpdatePayload
	if err := decodeJSON(w, r, &p); err != nil {
		writeServiceError(w, r, err)
		return
	}

	updated := make([]int, 0, len(p.Company))
	for _, c := range p.Company {
		in := company.UpdateInput{Name: c.Name, CNPJ: c.CNPJ, Email: c.Email}
		if err := h.companies.Update(r.Context(), c.CompanyID, in); err != nil {
			writePartial(w, r, applied("ids", updated, len(updated)), err)
			return
		}
		updated = append(updated, c.CompanyID)
	}
	WriteJSON(w, http.StatusOK, message("empresa atualizada com sucesso", "ids", updated))
}

func (h *Handler) ActiveCompany(w http.ResponseWriter, r *http.Request) {
	id, err := positiveIntQuery(r, "company_id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := h.companies.Activate(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, message("empresa ativada com sucesso"))
}

// DeleteCompany apenas desativa a empresa.
func (h *Handler) DeleteCompany(w http.ResponseWriter, r *http.Request) {
	id, err := positiveIntQuery(r, "company_id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := h.companies.Deactivate(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, message("empresa desativada com sucesso"))
}

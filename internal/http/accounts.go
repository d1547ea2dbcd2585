package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/charismabi/handson/internal/authapi"
	httpmiddleware "github.com/charismabi/handson/internal/http/middleware"
)

// As rotas de conta repassam o corpo da resposta do serviço de autenticação.

func relay(w http.ResponseWriter, r *http.Request, status int, raw json.RawMessage, err error) {
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, status, raw)
}

func (h *Handler) GetToken(w http.ResponseWriter, r *http.Request) {
	var p tokenPayload
	if err := decodeJSON(w, r, &p); err != nil {
		writeServiceError(w, r, err)
		return
	}
	raw, err := h.accounts.Token(r.Context(), p.Email, p.Password)
	relay(w, r, http.StatusOK, raw, err)
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var p resetPayload
	if err := decodeJSON(w, r, &p); err != nil {
		writeServiceError(w, r, err)
		return
	}
	raw, err := h.accounts.ResetPassword(r.Context(), p.Email)
	relay(w, r, http.StatusOK, raw, err)
}

func (h *Handler) ResetPasswordConfirm(w http.ResponseWriter, r *http.Request) {
	var p resetConfirmPayload
	if err := decodeJSON(w, r, &p); err != nil {
		writeServiceError(w, r, err)
		return
	}
	raw, err := h.accounts.ConfirmReset(r.Context(), p.UID, p.Token, p.NewPassword)
	relay(w, r, http.StatusOK, raw, err)
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var p userPayload
	if err := decodeJSON(w, r, &p); err != nil {
		writeServiceError(w, r, err)
		return
	}
	u := authapi.User{Name: p.Name, Email: p.Email, Username: p.Username, Password: p.Password, Image: p.Image}
	raw, err := h.accounts.CreateUser(r.Context(), httpmiddleware.GetBearer(r.Context()), u)
	relay(w, r, http.StatusCreated, raw, err)
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var p userUpdatePayload
	if err := decodeJSON(w, r, &p); err != nil {
		writeServiceError(w, r, err)
		return
	}
	u := authapi.User{Name: p.Name, Email: p.Email, Username: p.Username, Image: p.Image}
	raw, err := h.accounts.UpdateUser(r.Context(), httpmiddleware.GetBearer(r.Context()), chi.URLParam(r, "user_id"), u)
	relay(w, r, http.StatusOK, raw, err)
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	raw, err := h.accounts.DeleteUser(r.Context(), httpmiddleware.GetBearer(r.Context()), chi.URLParam(r, "user_id"))
	relay(w, r, http.StatusOK, raw, err)
}

func (h *Handler) CreateRole(w http.ResponseWriter, r *http.Request) {
	var p rolePayload
	if err := decodeJSON(w, r, &p); err != nil {
		writeServiceError(w, r, err)
		return
	}
	raw, err := h.accounts.CreateRole(r.Context(), httpmiddleware.GetBearer(r.Context()), authapi.Role{CompanyID: p.CompanyID, UserID: p.UserID, Role: p.Role})
	relay(w, r, http.StatusCreated, raw, err)
}

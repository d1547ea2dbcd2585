// Package authapi encaminha as operações de conta ao serviço de autenticação.
package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const maxBody = 1 << 20

// Error carrega a resposta não-2xx do serviço remoto.
type Error struct {
	Status int
	Body   json.RawMessage
}

func (e *Error) Error() string {
	return fmt.Sprintf("authapi: status %d", e.Status)
}

// Client encapsula chamadas HTTP ao serviço de autenticação.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// New cria o cliente com timeout de 15s.
func New(baseURL string) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("authapi: base url obrigatória")
	}
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    baseURL,
	}, nil
}

// User é o payload de criação e atualização de usuário.
type User struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Image    string `json:"image,omitempty"`
}

// Role vincula um usuário a uma empresa com um nível de acesso.
type Role struct {
	CompanyID int    `json:"company_id"`
	UserID    int    `json:"user_id"`
	Role      string `json:"role"`
}

func (c *Client) Token(ctx context.Context, email, password string) (json.RawMessage, error) {
	return c.call(ctx, http.MethodPost, "/accounts/api/token", "", map[string]string{"email": email, "password": password})
}

func (c *Client) CreateUser(ctx context.Context, bearer string, u User) (json.RawMessage, error) {
	return c.call(ctx, http.MethodPost, "/accounts/api/user", bearer, u)
}

func (c *Client) UpdateUser(ctx context.Context, bearer, userID string, u User) (json.RawMessage, error) {
	return c.call(ctx, http.MethodPut, "/accounts/api/user/"+userID+"/", bearer, u)
}

func (c *Client) DeleteUser(ctx context.Context, bearer, userID string) (json.RawMessage, error) {
	return c.call(ctx, http.MethodDelete, "/accounts/api/user/"+userID+"/", bearer, nil)
}

func (c *Client) CreateRole(ctx context.Context, bearer string, r Role) (json.RawMessage, error) {
	return c.call(ctx, http.MethodPost, "/company/role/", bearer, r)
}

func (c *Client) ResetPassword(ctx context.Context, email string) (json.RawMessage, error) {
	return c.call(ctx, http.MethodPost, "/accounts/api/password-reset", "", map[string]string{"email": email})
}

// ConfirmReset conclui a troca de senha com o uid e o token enviados por email.
func (c *Client) ConfirmReset(ctx context.Context, uid, token, newPassword string) (json.RawMessage, error) {
	body := map[string]string{"uid": uid, "token": token, "new_password": newPassword}
	return c.call(ctx, http.MethodPost, "/accounts/api/password-reset/confirm", "", body)
}

func (c *Client) call(ctx context.Context, method, path, bearer string, body any) (json.RawMessage, error) {
	req, err := c.newRequest(ctx, method, c.baseURL+path, bearer, body)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{Status: resp.StatusCode, Body: asJSON(raw)}
	}
	if len(raw) == 0 {
		return json.RawMessage("{}"), nil
	}
	return asJSON(raw), nil
}

func (c *Client) newRequest(ctx context.Context, method, endpoint, bearer string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// asJSON embrulha respostas que não são JSON em {"detail": "..."}.
func asJSON(raw []byte) json.RawMessage {
	if len(raw) > 0 && json.Valid(raw) {
		return raw
	}
	wrapped, _ := json.Marshal(map[string]string{"detail": string(raw)})
	return wrapped
}

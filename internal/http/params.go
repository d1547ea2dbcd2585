package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/charismabi/handson/internal/db"
	"github.com/charismabi/handson/internal/util"
)

const maxBodyBytes = 10 << 20

// decodeJSON lê o corpo e aplica as tags validate do payload.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if err := decodeBody(w, r, dst); err != nil {
		return err
	}
	return util.ValidateStruct(dst)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return util.Invalid("corpo da requisição vazio")
		}
		return util.Invalid("JSON inválido")
	}
	return nil
}

func requiredQuery(r *http.Request, name string) (string, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return "", util.Invalid("parâmetro %s obrigatório", name)
	}
	return v, nil
}

func positiveIntQuery(r *http.Request, name string) (int, error) {
	raw, err := requiredQuery(r, name)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, util.Invalid("parâmetro %s deve ser um inteiro positivo", name)
	}
	return n, nil
}

// pageFromQuery lê limit (>=1, padrão 10) e offset (>=0, padrão 0).
func pageFromQuery(r *http.Request) (db.Page, error) {
	q := r.URL.Query()
	page := db.Page{Limit: db.DefaultLimit}
	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return db.Page{}, util.Invalid("limit deve ser maior ou igual a 1")
		}
		page.Limit = n
	}
	if raw := strings.TrimSpace(q.Get("offset")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return db.Page{}, util.Invalid("offset deve ser maior ou igual a 0")
		}
		page.Offset = n
	}
	return page.Normalize(), nil
}

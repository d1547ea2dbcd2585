package db

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Códigos SQLSTATE tratados pelos repositórios.
const (
	CodeUniqueViolation  = "23505"
	CodeFKViolation      = "23503"
	CodeUndefinedTable   = "42P01"
	CodeUndefinedColumn  = "42703"
	CodeInvalidSchema    = "3F000"
	CodeDuplicateTable   = "42P07"
	CodeDuplicateColumn  = "42701"
	CodeDuplicateObject  = "42710"
	CodeCannotCoerce     = "42846"
	CodeDatatypeMismatch = "42804"
	CodeInvalidText      = "22P02"
)

// PgCode devolve o SQLSTATE do erro ou string vazia.
func PgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsCode informa se o erro carrega algum dos SQLSTATE informados.
func IsCode(err error, codes ...string) bool {
	code := PgCode(err)
	if code == "" {
		return false
	}
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}

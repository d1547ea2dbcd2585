// Package ident normaliza e cita identificadores SQL vindos de requisições.
package ident

import (
	"errors"
	"regexp"
	"strings"
	"unicode"

	"github.com/jackc/pgx/v5"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ErrInvalid indica identificador vazio ou fora do padrão aceito.
var ErrInvalid = errors.New("identificador inválido")

const maxLen = 63

var (
	reNotWord       = regexp.MustCompile(`[^a-zA-Z0-9\s_]`)
	reSpaces        = regexp.MustCompile(`\s+`)
	reUnderscores   = regexp.MustCompile(`_+`)
	reNotColumnChar = regexp.MustCompile(`[^a-zA-Z0-9_]`)
	reDoubleUnder   = regexp.MustCompile(`__+`)
	reValid         = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)
)

// Skeleton lista as colunas fixas de toda tabela dinâmica.
var Skeleton = []string{"id", "date", "is_deleted", "news_code", "company_id"}

func stripAccents(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	var b strings.Builder
	for _, r := range out {
		if r <= unicode.MaxASCII {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Normalize converte nomes de schema e tabela para snake_case ASCII.
func Normalize(s string) string {
	s = stripAccents(s)
	s = reNotWord.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	s = reSpaces.ReplaceAllString(s, "_")
	s = reUnderscores.ReplaceAllString(s, "_")
	return strings.ToLower(s)
}

// NormalizeColumn converte cabeçalhos de planilha em nomes de coluna.
func NormalizeColumn(s string) string {
	s = stripAccents(s)
	s = reNotColumnChar.ReplaceAllString(s, "_")
	s = reDoubleUnder.ReplaceAllString(s, "_")
	return strings.ToLower(s)
}

// Valid confere se o nome já normalizado pode ser usado como identificador.
func Valid(name string) error {
	if strings.Trim(name, "_") == "" || len(name) > maxLen || !reValid.MatchString(name) {
		return ErrInvalid
	}
	return nil
}

// IsSkeleton informa se a coluna pertence ao esqueleto fixo.
func IsSkeleton(column string) bool {
	for _, c := range Skeleton {
		if c == column {
			return true
		}
	}
	return false
}

// Table devolve "schema"."tabela" já citado.
func Table(schema, table string) string {
	return pgx.Identifier{schema, table}.Sanitize()
}

// Quote cita um único identificador.
func Quote(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

package files

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/charismabi/handson/internal/clipping"
	"github.com/charismabi/handson/internal/ident"
)

var dateLayouts = []string{"02/01/2006 15:04:05", "02/01/2006", "2006-01-02"}

func parseDate(v any) (time.Time, error) {
	switch d := v.(type) {
	case time.Time:
		return d, nil
	case string:
		raw := strings.TrimSpace(d)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("data inválida %q", raw)
	}
	return time.Time{}, fmt.Errorf("data inválida %v", v)
}

// text converte valores de célula em texto; números inteiros perdem o ".0".
func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1e15 {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	return fmt.Sprint(v)
}

// integer trata célula vazia como zero.
func integer(v any) (int64, error) {
	switch t := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return int64(t), nil
	case int:
		return int64(t), nil
	case int64:
		return t, nil
	}
	raw := text(v)
	if raw == "" {
		return 0, nil
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
	if err != nil {
		return 0, fmt.Errorf("inteiro inválido %q", raw)
	}
	return int64(f), nil
}

// currency lê valores no formato "R$ 1.234,56". Números JSON passam direto.
func currency(v any) (float64, error) {
	if f, ok := v.(float64); ok {
		return f, nil
	}
	raw := text(v)
	raw = strings.TrimSpace(strings.ReplaceAll(raw, "R$", ""))
	raw = strings.ReplaceAll(raw, ".", "")
	raw = strings.ReplaceAll(raw, ",", ".")
	if raw == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("valor monetário inválido %q", text(v))
	}
	return f, nil
}

func boolean(v any) (bool, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case float64:
		return t != 0, nil
	}
	switch strings.ToLower(text(v)) {
	case "true", "t", "1", "sim", "s", "yes", "y":
		return true, nil
	case "false", "f", "0", "nao", "não", "n", "no":
		return false, nil
	}
	return false, fmt.Errorf("booleano inválido %q", text(v))
}

// coerce converte a célula para o tipo informado pelo information_schema.
// Célula vazia vira NULL.
func coerce(v any, dataType string) (any, error) {
	if v == nil {
		return nil, nil
	}
	if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
		return nil, nil
	}
	switch dataType {
	case "integer", "bigint", "smallint":
		return integer(v)
	case "double precision", "real", "numeric":
		if f, ok := v.(float64); ok {
			return f, nil
		}
		f, err := strconv.ParseFloat(strings.ReplaceAll(text(v), ",", "."), 64)
		if err != nil {
			return nil, fmt.Errorf("número inválido %q", text(v))
		}
		return f, nil
	case "date", "timestamp without time zone", "timestamp with time zone":
		return parseDate(v)
	case "boolean":
		return boolean(v)
	}
	return text(v), nil
}

// field procura o cabeçalho pelo nome normalizado, ignorando acentos e caixa.
func field(item Item, key string) any {
	for k, v := range item {
		if ident.NormalizeColumn(strings.TrimSpace(k)) == key {
			return v
		}
	}
	return nil
}

// newsFromItem monta a notícia do clipping a partir dos cabeçalhos da planilha.
func newsFromItem(item Item, companyID int) (clipping.News, error) {
	var n clipping.News
	var err error

	n.NewsCode = text(field(item, "codigo_da_noticia"))
	if n.NewsCode == "" {
		return n, errors.New("CÓDIGO DA NOTÍCIA obrigatório")
	}
	if n.PublicationDate, err = parseDate(field(item, "data")); err != nil {
		return n, err
	}
	tier, err := integer(field(item, "tier"))
	if err != nil {
		return n, err
	}
	readers, err := integer(field(item, "alcance"))
	if err != nil {
		return n, err
	}
	if n.Valuation, err = currency(field(item, "valoracao")); err != nil {
		return n, err
	}

	n.Vehicle = text(field(item, "veiculo"))
	n.Title = text(field(item, "titulo"))
	n.Theme = text(field(item, "tema"))
	n.SubjectNameSlug = text(field(item, "microtema"))
	n.MediaType = text(field(item, "tipo_veiculo"))
	n.Tier = int(tier)
	n.Feeling = text(field(item, "sentimento"))
	n.Readers = int(readers)
	n.Journalist = text(field(item, "jornalista"))
	n.OriginalLink = text(field(item, "link_original"))
	n.CompanyID = companyID
	return n, nil
}

// dynamicRow filtra o item pelas colunas da tabela e converte os valores.
// Colunas do esqueleto nunca vêm da planilha.
func dynamicRow(item Item, columns map[string]string) (Row, error) {
	row := make(Row, len(item))
	for key, v := range item {
		col := ident.NormalizeColumn(strings.TrimSpace(key))
		dataType, ok := columns[col]
		if !ok || ident.IsSkeleton(col) {
			continue
		}
		val, err := coerce(v, dataType)
		if err != nil {
			return nil, fmt.Errorf("coluna %s: %w", col, err)
		}
		row[col] = val
	}
	return row, nil
}

package ident

import "fmt"

// Ref identifica uma tabela dinâmica já normalizada.
type Ref struct {
	Schema string `json:"schema_name"`
	Table  string `json:"table_name"`
}

// Resolve normaliza e valida schema e tabela.
func Resolve(schema, table string) (Ref, error) {
	ref := Ref{Schema: Normalize(schema), Table: Normalize(table)}
	if err := Valid(ref.Schema); err != nil {
		return Ref{}, fmt.Errorf("schema %q: %w", schema, err)
	}
	if err := Valid(ref.Table); err != nil {
		return Ref{}, fmt.Errorf("tabela %q: %w", table, err)
	}
	return ref, nil
}

// ResolveColumn normaliza e valida um nome de coluna.
func ResolveColumn(column string) (string, error) {
	name := NormalizeColumn(column)
	if err := Valid(name); err != nil {
		return "", fmt.Errorf("coluna %q: %w", column, err)
	}
	return name, nil
}

// Sanitize devolve o nome qualificado e citado.
func (r Ref) Sanitize() string {
	return Table(r.Schema, r.Table)
}

func (r Ref) String() string {
	return r.Schema + "." + r.Table
}

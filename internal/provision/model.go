package provision

import (
	"errors"
	"strings"
)

var (
	ErrNotFound = errors.New("tabela ou coluna não encontrada")
	ErrConflict = errors.New("objeto já existe")
	ErrInvalid  = errors.New("operação inválida")
)

// ColumnType é o tipo lógico aceito nas colunas dinâmicas.
type ColumnType string

const (
	TypeText    ColumnType = "text"
	TypeInteger ColumnType = "integer"
	TypeFloat   ColumnType = "float"
	TypeDate    ColumnType = "date"
	TypeBoolean ColumnType = "boolean"
)

var sqlTypes = map[ColumnType]string{
	TypeText:    "VARCHAR(1250)",
	TypeInteger: "INTEGER",
	TypeFloat:   "FLOAT",
	TypeDate:    "DATE",
	TypeBoolean: "BOOLEAN",
}

// ParseColumnType aceita os nomes lógicos e alguns sinônimos SQL.
func ParseColumnType(raw string) (ColumnType, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "text", "varchar", "string":
		return TypeText, nil
	case "integer", "int", "number":
		return TypeInteger, nil
	case "float", "double precision", "numeric":
		return TypeFloat, nil
	case "date":
		return TypeDate, nil
	case "boolean", "bool":
		return TypeBoolean, nil
	}
	return "", ErrInvalid
}

// SQL devolve o tipo PostgreSQL correspondente.
func (t ColumnType) SQL() string {
	return sqlTypes[t]
}

// Column descreve uma coluna existente.
type Column struct {
	Name     string `json:"name"`
	DataType string `json:"type"`
}

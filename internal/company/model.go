package company

import "errors"

var (
	ErrNotFound = errors.New("empresa não encontrada")
	ErrConflict = errors.New("empresa conflitante")
)

// Company é a empresa cadastrada no hands-on.
type Company struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	CNPJ     string `json:"cnpj"`
	Email    string `json:"email_company"`
	IsActive bool   `json:"is_active"`
}

// CreateInput reúne os campos obrigatórios do cadastro.
type CreateInput struct {
	Name  string
	CNPJ  string
	Email string
}

// UpdateInput altera apenas os campos informados.
type UpdateInput struct {
	Name  *string
	CNPJ  *string
	Email *string
}

func (in UpdateInput) empty() bool {
	return in.Name == nil && in.CNPJ == nil && in.Email == nil
}

// Column descreve uma coluna de tabela associada.
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Table é uma tabela dinâmica que contém linhas da empresa.
type Table struct {
	Name    string   `json:"table_name"`
	Columns []Column `json:"columns"`
}

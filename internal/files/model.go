// Package files cuida da carga de planilhas, da visão combinada com o
// clipping e da exportação em xlsx.
package files

import "errors"

var (
	ErrNotFound = errors.New("tabela não encontrada")
	ErrNoData   = errors.New("nenhum dado encontrado no intervalo de datas especificado")
)

// Item é uma linha da planilha enviada pelo front, indexada pelo cabeçalho.
type Item = map[string]any

// Row é uma linha da tabela dinâmica, indexada pelo nome da coluna.
type Row = map[string]any

// Saved identifica um registro gravado pelo upload.
type Saved struct {
	Table string `json:"table"`
	ID    any    `json:"id"`
}

// UploadReport resume um upload.
type UploadReport struct {
	Saved   []Saved `json:"data"`
	Skipped []int   `json:"skipped,omitempty"`
}

// CombinedRow junta a linha dinâmica com a notícia do clipping.
type CombinedRow struct {
	Dynamic  Row            `json:"dynamic_table_data"`
	Clipping map[string]any `json:"clipping_data"`
}

// Workbook é o arquivo exportado.
type Workbook struct {
	Filename string
	Body     []byte
	Archived string
}

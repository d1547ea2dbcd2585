package clipping

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("empresa não encontrada no clipping")

// Company é uma linha de company_company.
type Company struct {
	ID            int    `json:"id"`
	CorporateName string `json:"corporate_name"`
	CNPJ          string `json:"cnpj"`
	Email         string `json:"email"`
	IsActive      bool   `json:"is_active"`
}

// News é a notícia gravada em news_charisma.clippings_news pelo upload.
type News struct {
	NewsCode        string
	PublicationDate time.Time
	Vehicle         string
	Title           string
	Theme           string
	SubjectNameSlug string
	MediaType       string
	Tier            int
	Feeling         string
	Readers         int
	Journalist      string
	OriginalLink    string
	Valuation       float64
	CompanyID       int
}

// Row é uma notícia lida com todas as colunas da tabela.
type Row = map[string]any

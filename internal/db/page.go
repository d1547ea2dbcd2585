package db

const (
	DefaultLimit = 10
	MaxLimit     = 500
)

// Page define janela de paginação por limit/offset.
type Page struct {
	Limit  int
	Offset int
}

// Normalize aplica defaults e limites.
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// Listing é uma página de resultados com o total real de registros.
type Listing[T any] struct {
	Total int
	Page  Page
	Items []T
}

// NewListing garante lista vazia em vez de nil.
func NewListing[T any](items []T, total int, page Page) Listing[T] {
	if items == nil {
		items = []T{}
	}
	return Listing[T]{Total: total, Page: page, Items: items}
}

package clipping

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/charismabi/handson/internal/db"
)

const (
	dbTimeout = 3 * time.Second
	newsTable = "news_charisma.clippings_news"
)

// Repository lê e grava no banco clipping.
type Repository struct {
	pool db.DBTX
}

func NewRepository(pool db.DBTX) *Repository {
	return &Repository{pool: pool}
}

// ListCompanies pagina company_company pelo estado de ativação.
func (r *Repository) ListCompanies(ctx context.Context, active bool, page db.Page) ([]Company, int, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM company_company WHERE is_active = $1`, active).Scan(&total); err != nil {
		return nil, 0, err
	}

	const query = `
        SELECT id, corporate_name, cnpj, email, is_active
        FROM company_company
        WHERE is_active = $1
        ORDER BY id
        LIMIT $2 OFFSET $3
    `
	rows, err := r.pool.Query(ctx, query, active, page.Limit, page.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	companies := []Company{}
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, 0, err
		}
		companies = append(companies, c)
	}
	return companies, total, rows.Err()
}

// FindActiveByName compara o nome sem diferenciar caixa nem espaços nas pontas.
func (r *Repository) FindActiveByName(ctx context.Context, name string) (Company, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	const query = `
        SELECT id, corporate_name, cnpj, email, is_active
        FROM company_company
        WHERE is_active = TRUE AND LOWER(TRIM(corporate_name)) = LOWER(TRIM($1))
        ORDER BY id
        LIMIT 1
    `
	c, err := scanCompany(r.pool.QueryRow(ctx, query, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Company{}, fmt.Errorf("%w: %q", ErrNotFound, name)
		}
		return Company{}, err
	}
	return c, nil
}

// SetNewsActive atualiza is_active da notícia. Uma notícia inexistente não é
// erro; a operação é idempotente.
func (r *Repository) SetNewsActive(ctx context.Context, newsCode string, active bool) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := r.pool.Exec(ctx, `UPDATE `+newsTable+` SET is_active = $1, modified_date = NOW() WHERE news_code = $2`, active, newsCode)
	return err
}

// UpsertNews atualiza a notícia pelo news_code ou a insere quando ausente.
// Roda no executor informado para participar da transação do upload.
func (r *Repository) UpsertNews(ctx context.Context, q db.DBTX, n News) (inserted bool, err error) {
	args := []any{
		n.NewsCode, n.PublicationDate, n.Vehicle, n.Title, n.Theme, n.SubjectNameSlug,
		n.MediaType, n.Tier, n.Feeling, n.Readers, n.Journalist, n.OriginalLink,
		n.Valuation, n.CompanyID,
	}

	const update = `
        UPDATE ` + newsTable + `
        SET publication_date = $2, vehicle = $3, title = $4, theme = $5, subject_name_slug = $6,
            media_type = $7, tier = $8, feeling = $9, readers = $10, journalist = $11,
            original_link = $12, valuation = $13, company_id = $14,
            modified_date = NOW(), is_active = TRUE, approved_news = TRUE
        WHERE news_code = $1
    `
	tag, err := q.Exec(ctx, update, args...)
	if err != nil {
		return false, fmt.Errorf("atualizar notícia %s: %w", n.NewsCode, err)
	}
	if tag.RowsAffected() > 0 {
		return false, nil
	}

	const insert = `
        INSERT INTO ` + newsTable + ` (
            news_code, publication_date, vehicle, title, theme, subject_name_slug,
            media_type, tier, feeling, readers, journalist, original_link,
            valuation, company_id, created_date, modified_date, is_active, approved_news
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW(), TRUE, TRUE)
    `
	if _, err := q.Exec(ctx, insert, args...); err != nil {
		return false, fmt.Errorf("inserir notícia %s: %w", n.NewsCode, err)
	}
	return true, nil
}

// NewsByCodes devolve as notícias indexadas por news_code.
func (r *Repository) NewsByCodes(ctx context.Context, codes []string) (map[string]Row, error) {
	out := make(map[string]Row, len(codes))
	if len(codes) == 0 {
		return out, nil
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, `SELECT * FROM `+newsTable+` WHERE news_code = ANY($1)`, codes)
	if err != nil {
		return nil, err
	}
	news, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, err
	}
	for _, n := range news {
		if code, ok := n["news_code"].(string); ok {
			out[code] = n
		}
	}
	return out, nil
}

func scanCompany(row pgx.Row) (Company, error) {
	var c Company
	var cnpj, email pgtype.Text
	var active pgtype.Bool
	if err := row.Scan(&c.ID, &c.CorporateName, &cnpj, &email, &active); err != nil {
		return Company{}, err
	}
	c.CNPJ = cnpj.String
	c.Email = email.String
	c.IsActive = active.Bool
	return c, nil
}

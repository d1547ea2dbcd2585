package register

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/charismabi/handson/internal/db"
	"github.com/charismabi/handson/internal/ident"
)

const dbTimeout = 3 * time.Second

// Repository acessa as tabelas dinâmicas do banco hands-on.
type Repository struct {
	pool db.DBTX
}

func NewRepository(pool db.DBTX) *Repository {
	return &Repository{pool: pool}
}

// SetDeleted grava is_deleted e devolve o news_code e o is_deleted que a
// linha tinha antes do UPDATE.
func (r *Repository) SetDeleted(ctx context.Context, ref ident.Ref, id int64, deleted bool) (Previous, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	table := ref.Sanitize()
	query := fmt.Sprintf(`UPDATE %s AS t SET is_deleted = $1
FROM (SELECT id, is_deleted FROM %s WHERE id = $2 FOR UPDATE) AS prev
WHERE t.id = prev.id
RETURNING t.news_code, prev.is_deleted`, table, table)

	var (
		prev Previous
		was  pgtype.Bool
	)
	if err := r.pool.QueryRow(ctx, query, deleted, id).Scan(&prev.NewsCode, &was); err != nil {
		if errors.Is(err, pgx.ErrNoRows) || db.IsCode(err, db.CodeUndefinedTable, db.CodeInvalidSchema) {
			return Previous{}, fmt.Errorf("%w: %s id=%d", ErrNotFound, ref, id)
		}
		return Previous{}, err
	}
	prev.Deleted = was.Bool
	return prev, nil
}

// List devolve a página filtrada e o total de linhas que atendem o filtro.
func (r *Repository) List(ctx context.Context, ref ident.Ref, f Filter, page db.Page) ([]Record, int, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	table := ref.Sanitize()
	where := "is_deleted = $1"
	order := "id"
	args := []any{f.Deleted}
	if f.HasRange() {
		where += " AND date BETWEEN $2 AND $3"
		order = "date DESC, id"
		args = append(args, f.From, f.To)
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", table, where)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		if db.IsCode(err, db.CodeUndefinedTable, db.CodeInvalidSchema) {
			return nil, 0, fmt.Errorf("%w: tabela %s", ErrNotFound, ref)
		}
		return nil, 0, err
	}

	n := len(args)
	query := fmt.Sprintf("SELECT * FROM %s WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d", table, where, order, n+1, n+2)
	rows, err := r.pool.Query(ctx, query, append(args, page.Limit, page.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	records, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

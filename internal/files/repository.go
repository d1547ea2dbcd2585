package files

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/charismabi/handson/internal/db"
	"github.com/charismabi/handson/internal/ident"
)

const (
	dbTimeout     = 3 * time.Second
	exportTimeout = 30 * time.Second
)

// ConflictMode define o tratamento de linhas repetidas no insert.
type ConflictMode int

const (
	// UpdateOnNews atualiza a linha com o mesmo (news_code, company_id, date).
	UpdateOnNews ConflictMode = iota
	// SkipConflicts ignora a linha conflitante.
	SkipConflicts
)

// Inserted é o desfecho de uma linha no insert em lote.
type Inserted struct {
	ID      int64
	Skipped bool
}

// Repository executa o DML das tabelas dinâmicas usado pelos arquivos.
type Repository struct {
	pool db.Pool
}

func NewRepository(pool db.Pool) *Repository {
	return &Repository{pool: pool}
}

// InsertRows grava todas as linhas em uma única transação.
func (r *Repository) InsertRows(ctx context.Context, ref ident.Ref, rows []Row, mode ConflictMode) ([]Inserted, error) {
	ctx, cancel := context.WithTimeout(ctx, exportTimeout)
	defer cancel()

	out := make([]Inserted, 0, len(rows))
	err := db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		for i, row := range rows {
			stmt, args := insertStatement(ref, row, mode)
			var id int64
			err := tx.QueryRow(ctx, stmt, args...).Scan(&id)
			switch {
			case err == nil:
				out = append(out, Inserted{ID: id})
			case mode == SkipConflicts && errors.Is(err, pgx.ErrNoRows):
				out = append(out, Inserted{Skipped: true})
			default:
				return fmt.Errorf("linha %d: %w", i+1, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func insertStatement(ref ident.Ref, row Row, mode ConflictMode) (string, []any) {
	cols := make([]string, 0, len(row))
	for c := range row {
		cols = append(cols, c)
	}
	sort.Strings(cols)

	quoted := make([]string, len(cols))
	holders := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, c := range cols {
		quoted[i] = ident.Quote(c)
		holders[i] = "$" + strconv.Itoa(i+1)
		args[i] = row[c]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES (%s)", ref.Sanitize(), strings.Join(quoted, ", "), strings.Join(holders, ", "))
	switch mode {
	case UpdateOnNews:
		sets := make([]string, len(quoted))
		for i, q := range quoted {
			sets[i] = q + " = EXCLUDED." + q
		}
		b.WriteString(" ON CONFLICT (news_code, company_id, date) DO UPDATE SET " + strings.Join(sets, ", "))
	case SkipConflicts:
		b.WriteString(" ON CONFLICT DO NOTHING")
	}
	b.WriteString(" RETURNING id")
	return b.String(), args
}

// Page lê uma página ordenada por news_code e o total de linhas da tabela.
func (r *Repository) Page(ctx context.Context, ref ident.Ref, page db.Page) ([]Row, int, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	table := ref.Sanitize()
	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+table).Scan(&total); err != nil {
		return nil, 0, translate(err, ref)
	}

	rows, err := r.pool.Query(ctx, "SELECT * FROM "+table+" ORDER BY news_code, id LIMIT $1 OFFSET $2", page.Limit, page.Offset)
	if err != nil {
		return nil, 0, translate(err, ref)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ActiveInRange lê as linhas ativas do período e a ordem das colunas.
func (r *Repository) ActiveInRange(ctx context.Context, ref ident.Ref, from, to time.Time) ([]string, []Row, error) {
	ctx, cancel := context.WithTimeout(ctx, exportTimeout)
	defer cancel()

	query := "SELECT * FROM " + ref.Sanitize() + " WHERE is_deleted = FALSE AND date BETWEEN $1 AND $2 ORDER BY date, id"
	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, nil, translate(err, ref)
	}

	fields := rows.FieldDescriptions()
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.Name
	}
	out, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, nil, translate(err, ref)
	}
	return cols, out, nil
}

func translate(err error, ref ident.Ref) error {
	if db.IsCode(err, db.CodeUndefinedTable, db.CodeInvalidSchema) {
		return fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	return err
}

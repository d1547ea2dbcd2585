package company

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/charismabi/handson/internal/db"
	"github.com/charismabi/handson/internal/ident"
)

const dbTimeout = 3 * time.Second

// Repository provê acesso à tabela company do banco hands-on.
type Repository struct {
	pool db.Pool
}

// NewRepository cria um novo repositório de empresas.
func NewRepository(pool db.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create insere a empresa ativa e devolve o id gerado.
func (r *Repository) Create(ctx context.Context, in CreateInput) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	const query = `
        INSERT INTO company (name, cnpj, email_company, is_active)
        VALUES ($1, $2, $3, TRUE)
        RETURNING id
    `
	var id int
	if err := r.pool.QueryRow(ctx, query, in.Name, in.CNPJ, in.Email).Scan(&id); err != nil {
		if db.IsCode(err, db.CodeUniqueViolation) {
			return 0, fmt.Errorf("%w: %v", ErrConflict, err)
		}
		return 0, err
	}
	return id, nil
}

// Update grava somente os campos presentes em in.
func (r *Repository) Update(ctx context.Context, id int, in UpdateInput) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	sets := make([]string, 0, 3)
	args := make([]any, 0, 4)
	add := func(col string, v *string) {
		if v == nil {
			return
		}
		args = append(args, *v)
		sets = append(sets, col+" = $"+strconv.Itoa(len(args)))
	}
	add("name", in.Name)
	add("cnpj", in.CNPJ)
	add("email_company", in.Email)
	args = append(args, id)

	query := fmt.Sprintf("UPDATE company SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		if db.IsCode(err, db.CodeUniqueViolation) {
			return fmt.Errorf("%w: %v", ErrConflict, err)
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetActive ativa ou desativa a empresa.
func (r *Repository) SetActive(ctx context.Context, id int, active bool) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `UPDATE company SET is_active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List pagina as empresas pelo estado de ativação.
func (r *Repository) List(ctx context.Context, active bool, page db.Page) ([]Company, int, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM company WHERE is_active = $1`, active).Scan(&total); err != nil {
		return nil, 0, err
	}

	const query = `
        SELECT id, name, cnpj, email_company, is_active
        FROM company
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
		var c Company
		var name, cnpj, email pgtype.Text
		var isActive pgtype.Bool
		if err := rows.Scan(&c.ID, &name, &cnpj, &email, &isActive); err != nil {
			return nil, 0, err
		}
		c.Name, c.CNPJ, c.Email, c.IsActive = name.String, cnpj.String, email.String, isActive.Bool
		companies = append(companies, c)
	}
	return companies, total, rows.Err()
}

// Exists informa se a empresa está cadastrada.
func (r *Repository) Exists(ctx context.Context, id int) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var ok bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM company WHERE id = $1)`, id).Scan(&ok)
	return ok, err
}

// AssociateTable atribui a empresa às linhas ainda sem company_id.
func (r *Repository) AssociateTable(ctx context.Context, ref ident.Ref, companyID int) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	query := fmt.Sprintf("UPDATE %s SET company_id = $1 WHERE company_id IS NULL", ref.Sanitize())
	tag, err := r.pool.Exec(ctx, query, companyID)
	if err != nil {
		switch {
		case db.IsCode(err, db.CodeUndefinedTable, db.CodeInvalidSchema):
			return 0, fmt.Errorf("%w: tabela %s", ErrNotFound, ref)
		case db.IsCode(err, db.CodeFKViolation):
			return 0, fmt.Errorf("%w: id %d", ErrNotFound, companyID)
		}
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// TablesWithCompanyColumn pagina as tabelas do schema que possuem company_id.
func (r *Repository) TablesWithCompanyColumn(ctx context.Context, schema string, page db.Page) ([]string, int, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	const countQuery = `
        SELECT COUNT(DISTINCT table_name)
        FROM information_schema.columns
        WHERE column_name = 'company_id' AND table_schema = $1
    `
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, schema).Scan(&total); err != nil {
		return nil, 0, err
	}

	const query = `
        SELECT table_name
        FROM information_schema.columns
        WHERE column_name = 'company_id' AND table_schema = $1
        GROUP BY table_name
        ORDER BY table_name
        LIMIT $2 OFFSET $3
    `
	rows, err := r.pool.Query(ctx, query, schema, page.Limit, page.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, 0, err
		}
		tables = append(tables, name)
	}
	return tables, total, rows.Err()
}

// HasCompanyRows informa se a tabela tem ao menos uma linha da empresa.
func (r *Repository) HasCompanyRows(ctx context.Context, ref ident.Ref, companyID int) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	query := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE company_id = $1)", ref.Sanitize())
	var ok bool
	err := r.pool.QueryRow(ctx, query, companyID).Scan(&ok)
	return ok, err
}

// ImportWithID grava a empresa com o id de origem. A tabela fica bloqueada
// para escrita concorrente até o fim da transação: mesmo nome devolve o id
// existente; id ocupado por outro nome é conflito.
func (r *Repository) ImportWithID(ctx context.Context, c Company) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var out int
	err := db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `LOCK TABLE company IN SHARE ROW EXCLUSIVE MODE`); err != nil {
			return err
		}

		var existing int
		err := tx.QueryRow(ctx, `SELECT id FROM company WHERE LOWER(TRIM(name)) = LOWER(TRIM($1)) ORDER BY id LIMIT 1`, c.Name).Scan(&existing)
		switch {
		case err == nil:
			out = existing
			return nil
		case !errors.Is(err, pgx.ErrNoRows):
			return err
		}

		var holder pgtype.Text
		err = tx.QueryRow(ctx, `SELECT name FROM company WHERE id = $1`, c.ID).Scan(&holder)
		switch {
		case err == nil:
			return fmt.Errorf("%w: id %d pertence a %q", ErrConflict, c.ID, holder.String)
		case !errors.Is(err, pgx.ErrNoRows):
			return err
		}

		const insert = `
            INSERT INTO company (id, name, cnpj, email_company, is_active)
            OVERRIDING SYSTEM VALUE
            VALUES ($1, $2, $3, $4, $5)
        `
		if _, err := tx.Exec(ctx, insert, c.ID, c.Name, c.CNPJ, c.Email, c.IsActive); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `SELECT setval(pg_get_serial_sequence('company', 'id'), (SELECT MAX(id) FROM company))`); err != nil {
			return err
		}
		out = c.ID
		return nil
	})
	if err != nil {
		return 0, err
	}
	return out, nil
}

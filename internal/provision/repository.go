package provision

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/charismabi/handson/internal/db"
	"github.com/charismabi/handson/internal/ident"
)

const dbTimeout = 3 * time.Second

// Repository executa o DDL das tabelas dinâmicas no banco hands-on.
type Repository struct {
	pool db.Pool
}

// NewRepository cria o repositório de provisionamento.
func NewRepository(pool db.Pool) *Repository {
	return &Repository{pool: pool}
}

const companyTableDDL = `CREATE TABLE IF NOT EXISTS company (
    id INTEGER GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    name VARCHAR(255),
    cnpj VARCHAR(20),
    email_company VARCHAR(255),
    is_active BOOLEAN
)`

// CreateSchema cria o schema se ainda não existir.
func (r *Repository) CreateSchema(ctx context.Context, schema string) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := r.pool.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+ident.Quote(schema))
	return translate(err)
}

// CreateTable cria a tabela com o esqueleto fixo e a restrição unique_news
// na mesma transação.
func (r *Repository) CreateTable(ctx context.Context, ref ident.Ref) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	table := ref.Sanitize()
	create := fmt.Sprintf(`CREATE TABLE %s (id SERIAL PRIMARY KEY, date DATE NULL, is_deleted BOOLEAN DEFAULT FALSE, news_code VARCHAR NULL, company_id INTEGER NULL REFERENCES company(id), UNIQUE (news_code, id))`, table)
	constraint := fmt.Sprintf(`ALTER TABLE %s ADD CONSTRAINT unique_news UNIQUE (news_code, company_id, date)`, table)

	err := db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, create); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, constraint)
		return err
	})
	return translate(err)
}

// TableExists consulta o information_schema.
func (r *Repository) TableExists(ctx context.Context, ref ident.Ref) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	const query = `
        SELECT EXISTS (
            SELECT 1 FROM information_schema.tables
            WHERE table_schema = $1 AND table_name = $2
        )
    `
	var exists bool
	if err := r.pool.QueryRow(ctx, query, ref.Schema, ref.Table).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// Columns lista as colunas na ordem de criação.
func (r *Repository) Columns(ctx context.Context, ref ident.Ref) ([]Column, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	const query = `
        SELECT column_name, data_type
        FROM information_schema.columns
        WHERE table_schema = $1 AND table_name = $2
        ORDER BY ordinal_position
    `
	rows, err := r.pool.Query(ctx, query, ref.Schema, ref.Table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var c Column
		if err := rows.Scan(&c.Name, &c.DataType); err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

// AddColumn executa um ALTER TABLE ADD COLUMN autônomo.
func (r *Repository) AddColumn(ctx context.Context, ref ident.Ref, column string, typ ColumnType) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", ref.Sanitize(), ident.Quote(column), typ.SQL())
	_, err := r.pool.Exec(ctx, stmt)
	return translate(err)
}

// CountColumn devolve o total de linhas e quantas têm a coluna preenchida.
// Falha com ErrNotFound quando a tabela ou a coluna não existem.
func (r *Repository) CountColumn(ctx context.Context, ref ident.Ref, column string) (int, int, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	query := fmt.Sprintf("SELECT COUNT(*), COUNT(%s) FROM %s", ident.Quote(column), ref.Sanitize())
	var total, filled int
	if err := r.pool.QueryRow(ctx, query).Scan(&total, &filled); err != nil {
		return 0, 0, translate(err)
	}
	return total, filled, nil
}

// RenameColumn renomeia uma coluna.
func (r *Repository) RenameColumn(ctx context.Context, ref ident.Ref, oldName, newName string) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	stmt := fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s", ref.Sanitize(), ident.Quote(oldName), ident.Quote(newName))
	_, err := r.pool.Exec(ctx, stmt)
	return translate(err)
}

// ChangeColumnType converte a coluna com USING col::tipo.
func (r *Repository) ChangeColumnType(ctx context.Context, ref ident.Ref, column string, typ ColumnType) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	col := ident.Quote(column)
	stmt := fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE %s USING %s::%s", ref.Sanitize(), col, typ.SQL(), col, typ.SQL())
	_, err := r.pool.Exec(ctx, stmt)
	return translate(err)
}

// MigrateCompanyTable cria a tabela company usada como referência das
// tabelas dinâmicas.
func (r *Repository) MigrateCompanyTable(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := r.pool.Exec(ctx, companyTableDDL)
	return translate(err)
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case db.IsCode(err, db.CodeUndefinedTable, db.CodeInvalidSchema, db.CodeUndefinedColumn):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case db.IsCode(err, db.CodeDuplicateTable, db.CodeDuplicateColumn, db.CodeDuplicateObject):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	case db.IsCode(err, db.CodeCannotCoerce, db.CodeDatatypeMismatch, db.CodeInvalidText):
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return err
}

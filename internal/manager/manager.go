// Package manager executa as exclusões definitivas de tabelas, schemas e
// colunas do banco hands-on. Nenhuma delas pode ser desfeita.
package manager

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/charismabi/handson/internal/db"
	"github.com/charismabi/handson/internal/ident"
)

const dbTimeout = 3 * time.Second

// ErrProtected indica alvo que não pode ser removido.
var ErrProtected = errors.New("objeto protegido contra exclusão")

// Manager emite DROP sobre identificadores já normalizados.
type Manager struct {
	pool db.DBTX
	log  zerolog.Logger
}

func New(pool db.DBTX, logger zerolog.Logger) *Manager {
	return &Manager{pool: pool, log: logger}
}

// DeleteTable remove a tabela e seus dependentes.
func (m *Manager) DeleteTable(ctx context.Context, schema, table string) (ident.Ref, error) {
	ref, err := ident.Resolve(schema, table)
	if err != nil {
		return ident.Ref{}, err
	}
	if err := m.exec(ctx, "DROP TABLE IF EXISTS "+ref.Sanitize()+" CASCADE"); err != nil {
		return ident.Ref{}, err
	}
	m.log.Warn().Str("table", ref.String()).Msg("tabela excluída")
	return ref, nil
}

// DeleteSchema remove o schema inteiro. public e pg_* são recusados.
func (m *Manager) DeleteSchema(ctx context.Context, schema string) (string, error) {
	name := ident.Normalize(schema)
	if err := ident.Valid(name); err != nil {
		return "", fmt.Errorf("schema %q: %w", schema, err)
	}
	if name == "public" || name == "information_schema" || strings.HasPrefix(name, "pg_") {
		return "", fmt.Errorf("%w: schema %s", ErrProtected, name)
	}
	if err := m.exec(ctx, "DROP SCHEMA IF EXISTS "+ident.Quote(name)+" CASCADE"); err != nil {
		return "", err
	}
	m.log.Warn().Str("schema", name).Msg("schema excluído")
	return name, nil
}

// DeleteColumn remove uma coluna do tenant; o esqueleto é protegido.
func (m *Manager) DeleteColumn(ctx context.Context, schema, table, column string) (string, error) {
	ref, err := ident.Resolve(schema, table)
	if err != nil {
		return "", err
	}
	col, err := ident.ResolveColumn(column)
	if err != nil {
		return "", err
	}
	if ident.IsSkeleton(col) {
		return "", fmt.Errorf("%w: coluna %s", ErrProtected, col)
	}
	stmt := fmt.Sprintf("ALTER TABLE %s DROP COLUMN IF EXISTS %s", ref.Sanitize(), ident.Quote(col))
	if err := m.exec(ctx, stmt); err != nil {
		return "", err
	}
	m.log.Warn().Str("table", ref.String()).Str("column", col).Msg("coluna excluída")
	return col, nil
}

func (m *Manager) exec(ctx context.Context, stmt string) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := m.pool.Exec(ctx, stmt)
	return err
}

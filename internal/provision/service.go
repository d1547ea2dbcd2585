package provision

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/charismabi/handson/internal/ident"
)

// Store abstrai o repositório para os testes do serviço.
type Store interface {
	CreateSchema(ctx context.Context, schema string) error
	CreateTable(ctx context.Context, ref ident.Ref) error
	TableExists(ctx context.Context, ref ident.Ref) (bool, error)
	Columns(ctx context.Context, ref ident.Ref) ([]Column, error)
	AddColumn(ctx context.Context, ref ident.Ref, column string, typ ColumnType) error
	CountColumn(ctx context.Context, ref ident.Ref, column string) (int, int, error)
	RenameColumn(ctx context.Context, ref ident.Ref, oldName, newName string) error
	ChangeColumnType(ctx context.Context, ref ident.Ref, column string, typ ColumnType) error
	MigrateCompanyTable(ctx context.Context) error
}

// Service valida nomes vindos das requisições antes de emitir DDL.
type Service struct {
	store Store
	log   zerolog.Logger
}

// NewService cria o serviço de provisionamento.
func NewService(store Store, logger zerolog.Logger) *Service {
	return &Service{store: store, log: logger}
}

// CreateSchema normaliza o nome e cria o schema.
func (s *Service) CreateSchema(ctx context.Context, name string) (string, error) {
	schema := ident.Normalize(name)
	if err := ident.Valid(schema); err != nil {
		return "", fmt.Errorf("%w: schema %q", ErrInvalid, name)
	}
	if err := s.store.CreateSchema(ctx, schema); err != nil {
		return "", err
	}
	s.log.Info().Str("schema", schema).Msg("schema criado")
	return schema, nil
}

// CreateTable cria a tabela dinâmica com o esqueleto fixo.
func (s *Service) CreateTable(ctx context.Context, schema, table string) (ident.Ref, error) {
	ref, err := resolve(schema, table)
	if err != nil {
		return ident.Ref{}, err
	}
	if err := s.store.CreateTable(ctx, ref); err != nil {
		return ident.Ref{}, err
	}
	s.log.Info().Str("table", ref.String()).Msg("tabela criada")
	return ref, nil
}

// TableExists informa se a tabela existe.
func (s *Service) TableExists(ctx context.Context, ref ident.Ref) (bool, error) {
	return s.store.TableExists(ctx, ref)
}

// Columns lista as colunas de uma tabela existente.
func (s *Service) Columns(ctx context.Context, ref ident.Ref) ([]Column, error) {
	cols, err := s.store.Columns(ctx, ref)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	return cols, nil
}

// AddColumns cria as colunas em ordem. Cada coluna é confirmada isoladamente;
// em caso de falha devolve as já criadas junto com o erro.
func (s *Service) AddColumns(ctx context.Context, schema, table string, typ ColumnType, names []string) ([]string, error) {
	ref, err := resolve(schema, table)
	if err != nil {
		return nil, err
	}
	if typ.SQL() == "" {
		return nil, fmt.Errorf("%w: tipo %q", ErrInvalid, typ)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: nenhuma coluna informada", ErrInvalid)
	}

	cols := make([]string, 0, len(names))
	for _, raw := range names {
		col, err := ident.ResolveColumn(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		if ident.IsSkeleton(col) {
			return nil, fmt.Errorf("%w: coluna %s é reservada", ErrInvalid, col)
		}
		cols = append(cols, col)
	}

	created := make([]string, 0, len(cols))
	for _, col := range cols {
		if err := s.store.AddColumn(ctx, ref, col, typ); err != nil {
			return created, fmt.Errorf("coluna %s: %w", col, err)
		}
		created = append(created, col)
	}
	s.log.Info().Str("table", ref.String()).Str("type", string(typ)).Strs("columns", created).Msg("colunas criadas")
	return created, nil
}

// RenameColumn valida a existência da coluna e a renomeia.
func (s *Service) RenameColumn(ctx context.Context, schema, table, oldName, newName string) error {
	ref, err := resolve(schema, table)
	if err != nil {
		return err
	}
	oldCol, err := mutableColumn(oldName)
	if err != nil {
		return err
	}
	newCol, err := mutableColumn(newName)
	if err != nil {
		return err
	}
	if oldCol == newCol {
		return fmt.Errorf("%w: nomes idênticos", ErrInvalid)
	}
	if _, _, err := s.store.CountColumn(ctx, ref, oldCol); err != nil {
		return err
	}
	if err := s.store.RenameColumn(ctx, ref, oldCol, newCol); err != nil {
		return err
	}
	s.log.Info().Str("table", ref.String()).Str("from", oldCol).Str("to", newCol).Msg("coluna renomeada")
	return nil
}

// ChangeColumnType valida a coluna e altera seu tipo.
func (s *Service) ChangeColumnType(ctx context.Context, schema, table, column string, typ ColumnType) error {
	ref, err := resolve(schema, table)
	if err != nil {
		return err
	}
	if typ.SQL() == "" {
		return fmt.Errorf("%w: tipo %q", ErrInvalid, typ)
	}
	col, err := mutableColumn(column)
	if err != nil {
		return err
	}
	total, filled, err := s.store.CountColumn(ctx, ref, col)
	if err != nil {
		return err
	}
	if err := s.store.ChangeColumnType(ctx, ref, col, typ); err != nil {
		return err
	}
	s.log.Info().Str("table", ref.String()).Str("column", col).Str("type", string(typ)).
		Int("rows", total).Int("filled", filled).Msg("tipo de coluna alterado")
	return nil
}

// MigrateCompanyTable garante a tabela company.
func (s *Service) MigrateCompanyTable(ctx context.Context) error {
	if err := s.store.MigrateCompanyTable(ctx); err != nil {
		return err
	}
	s.log.Info().Msg("tabela company migrada")
	return nil
}

func resolve(schema, table string) (ident.Ref, error) {
	ref, err := ident.Resolve(schema, table)
	if err != nil {
		return ident.Ref{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return ref, nil
}

func mutableColumn(raw string) (string, error) {
	col, err := ident.ResolveColumn(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if ident.IsSkeleton(col) {
		return "", fmt.Errorf("%w: coluna %s é reservada", ErrInvalid, col)
	}
	return col, nil
}

package company

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/charismabi/handson/internal/db"
	"github.com/charismabi/handson/internal/ident"
	"github.com/charismabi/handson/internal/provision"
	"github.com/charismabi/handson/internal/util"
)

// Store abstrai o repositório de empresas.
type Store interface {
	Create(ctx context.Context, in CreateInput) (int, error)
	Update(ctx context.Context, id int, in UpdateInput) error
	SetActive(ctx context.Context, id int, active bool) error
	List(ctx context.Context, active bool, page db.Page) ([]Company, int, error)
	Exists(ctx context.Context, id int) (bool, error)
	AssociateTable(ctx context.Context, ref ident.Ref, companyID int) (int64, error)
	TablesWithCompanyColumn(ctx context.Context, schema string, page db.Page) ([]string, int, error)
	HasCompanyRows(ctx context.Context, ref ident.Ref, companyID int) (bool, error)
	ImportWithID(ctx context.Context, c Company) (int, error)
}

// ColumnLister lista as colunas de uma tabela dinâmica.
type ColumnLister interface {
	Columns(ctx context.Context, ref ident.Ref) ([]provision.Column, error)
}

// Service contém as regras do cadastro de empresas.
type Service struct {
	store   Store
	columns ColumnLister
	log     zerolog.Logger
}

func NewService(store Store, columns ColumnLister, logger zerolog.Logger) *Service {
	return &Service{store: store, columns: columns, log: logger}
}

// Create valida e cadastra a empresa.
func (s *Service) Create(ctx context.Context, in CreateInput) (int, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.CNPJ = strings.TrimSpace(in.CNPJ)
	in.Email = strings.TrimSpace(in.Email)
	if err := util.RequireString(in.Name, "name"); err != nil {
		return 0, err
	}
	if err := util.ValidateCNPJ(in.CNPJ); err != nil {
		return 0, err
	}
	if err := util.ValidateEmail(in.Email); err != nil {
		return 0, err
	}

	id, err := s.store.Create(ctx, in)
	if err != nil {
		return 0, err
	}
	s.log.Info().Int("company_id", id).Str("name", in.Name).Msg("empresa cadastrada")
	return id, nil
}

// Update altera os campos informados; ao menos um é obrigatório.
func (s *Service) Update(ctx context.Context, id int, in UpdateInput) error {
	if id <= 0 {
		return util.Invalid("company_id inválido")
	}
	if in.empty() {
		return util.Invalid("nenhum campo para atualizar foi fornecido")
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if err := util.RequireString(name, "name"); err != nil {
			return err
		}
		in.Name = &name
	}
	if in.CNPJ != nil {
		if err := util.ValidateCNPJ(strings.TrimSpace(*in.CNPJ)); err != nil {
			return err
		}
	}
	if in.Email != nil {
		if err := util.ValidateEmail(*in.Email); err != nil {
			return err
		}
	}
	return s.store.Update(ctx, id, in)
}

// Activate reativa a empresa.
func (s *Service) Activate(ctx context.Context, id int) error {
	return s.setActive(ctx, id, true)
}

// Deactivate envia a empresa para a lixeira.
func (s *Service) Deactivate(ctx context.Context, id int) error {
	return s.setActive(ctx, id, false)
}

func (s *Service) setActive(ctx context.Context, id int, active bool) error {
	if id <= 0 {
		return util.Invalid("company_id inválido")
	}
	if err := s.store.SetActive(ctx, id, active); err != nil {
		return err
	}
	s.log.Info().Int("company_id", id).Bool("active", active).Msg("estado da empresa alterado")
	return nil
}

func (s *Service) ListActive(ctx context.Context, page db.Page) (db.Listing[Company], error) {
	return s.list(ctx, true, page)
}

func (s *Service) ListInactive(ctx context.Context, page db.Page) (db.Listing[Company], error) {
	return s.list(ctx, false, page)
}

func (s *Service) list(ctx context.Context, active bool, page db.Page) (db.Listing[Company], error) {
	page = page.Normalize()
	items, total, err := s.store.List(ctx, active, page)
	if err != nil {
		return db.Listing[Company]{}, err
	}
	return db.NewListing(items, total, page), nil
}

// AssociateTable liga as linhas órfãs da tabela à empresa e devolve quantas
// foram associadas.
func (s *Service) AssociateTable(ctx context.Context, schema, table string, companyID int) (int64, error) {
	ref, err := ident.Resolve(schema, table)
	if err != nil {
		return 0, err
	}
	if companyID <= 0 {
		return 0, util.Invalid("company_id inválido")
	}
	ok, err := s.store.Exists(ctx, companyID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%w: id %d", ErrNotFound, companyID)
	}

	n, err := s.store.AssociateTable(ctx, ref, companyID)
	if err != nil {
		return 0, err
	}
	s.log.Info().Str("table", ref.String()).Int("company_id", companyID).Int64("rows", n).Msg("tabela associada à empresa")
	return n, nil
}

// TablesByCompany pagina as tabelas do schema com coluna company_id e
// devolve apenas as que têm linhas da empresa.
func (s *Service) TablesByCompany(ctx context.Context, schema string, companyID int, page db.Page) (db.Listing[Table], error) {
	name := ident.Normalize(schema)
	if err := ident.Valid(name); err != nil {
		return db.Listing[Table]{}, fmt.Errorf("schema %q: %w", schema, err)
	}
	if companyID <= 0 {
		return db.Listing[Table]{}, util.Invalid("company_id inválido")
	}
	page = page.Normalize()

	names, total, err := s.store.TablesWithCompanyColumn(ctx, name, page)
	if err != nil {
		return db.Listing[Table]{}, err
	}

	tables := make([]Table, 0, len(names))
	for _, t := range names {
		ref := ident.Ref{Schema: name, Table: t}
		ok, err := s.store.HasCompanyRows(ctx, ref, companyID)
		if err != nil {
			return db.Listing[Table]{}, err
		}
		if !ok {
			continue
		}
		cols, err := s.columns.Columns(ctx, ref)
		if err != nil {
			return db.Listing[Table]{}, err
		}
		table := Table{Name: t, Columns: make([]Column, 0, len(cols))}
		for _, c := range cols {
			table.Columns = append(table.Columns, Column{Name: c.Name, Type: c.DataType})
		}
		tables = append(tables, table)
	}
	return db.NewListing(tables, total, page), nil
}

// ImportWithID é o destino da transferência de empresas do clipping.
func (s *Service) ImportWithID(ctx context.Context, c Company) (int, error) {
	if c.ID <= 0 {
		return 0, util.Invalid("id de origem inválido")
	}
	if err := util.RequireString(c.Name, "name"); err != nil {
		return 0, err
	}
	return s.store.ImportWithID(ctx, c)
}

package provision

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/charismabi/handson/internal/ident"
)

type stubStore struct {
	added    []string
	failOn   string
	renamed  [2]string
	countErr error
	typed    ColumnType
	schemas  []string
	tables   []ident.Ref
	columns  []Column
	migrated bool
}

func (s *stubStore) CreateSchema(ctx context.Context, schema string) error {
	s.schemas = append(s.schemas, schema)
	return nil
}
func (s *stubStore) CreateTable(ctx context.Context, ref ident.Ref) error {
	s.tables = append(s.tables, ref)
	return nil
}
func (s *stubStore) TableExists(ctx context.Context, ref ident.Ref) (bool, error) {
	return len(s.tables) > 0, nil
}
func (s *stubStore) Columns(ctx context.Context, ref ident.Ref) ([]Column, error) {
	return s.columns, nil
}
func (s *stubStore) AddColumn(ctx context.Context, ref ident.Ref, column string, typ ColumnType) error {
	if column == s.failOn {
		return ErrConflict
	}
	s.added = append(s.added, column)
	return nil
}
func (s *stubStore) CountColumn(ctx context.Context, ref ident.Ref, column string) (int, int, error) {
	return 10, 8, s.countErr
}
func (s *stubStore) RenameColumn(ctx context.Context, ref ident.Ref, oldName, newName string) error {
	s.renamed = [2]string{oldName, newName}
	return nil
}
func (s *stubStore) ChangeColumnType(ctx context.Context, ref ident.Ref, column string, typ ColumnType) error {
	s.typed = typ
	return nil
}
func (s *stubStore) MigrateCompanyTable(ctx context.Context) error {
	s.migrated = true
	return nil
}

func TestServiceNormalizesNames(t *testing.T) {
	store := &stubStore{}
	svc := NewService(store, zerolog.Nop())

	ref, err := svc.CreateTable(context.Background(), "Meu Schema", "Notícias 2024")
	if err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	if ref.Schema != "meu_schema" || ref.Table != "noticias_2024" {
		t.Fatalf("ref = %+v", ref)
	}
	if _, err := svc.CreateSchema(context.Background(), "!!!"); !errors.Is(err, ErrInvalid) {
		t.Fatalf("esperava ErrInvalid, obteve %v", err)
	}
}

func TestAddColumnsStopsAtFirstFailure(t *testing.T) {
	store := &stubStore{failOn: "b"}
	svc := NewService(store, zerolog.Nop())

	created, err := svc.AddColumns(context.Background(), "acme", "news", TypeText, []string{"A", "B", "C"})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("esperava ErrConflict, obteve %v", err)
	}
	if len(created) != 1 || created[0] != "a" {
		t.Fatalf("criadas = %v", created)
	}
}

func TestAddColumnsRejectsSkeleton(t *testing.T) {
	svc := NewService(&stubStore{}, zerolog.Nop())
	if _, err := svc.AddColumns(context.Background(), "acme", "news", TypeDate, []string{"date"}); !errors.Is(err, ErrInvalid) {
		t.Fatalf("esperava ErrInvalid, obteve %v", err)
	}
}

func TestRenameColumnPrecheck(t *testing.T) {
	store := &stubStore{countErr: ErrNotFound}
	svc := NewService(store, zerolog.Nop())

	if err := svc.RenameColumn(context.Background(), "acme", "news", "velho", "novo"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("esperava ErrNotFound, obteve %v", err)
	}
	if store.renamed[0] != "" {
		t.Fatal("rename executado apesar da falha na verificação")
	}

	store.countErr = nil
	if err := svc.RenameColumn(context.Background(), "acme", "news", "Velho", "Novo Nome"); err != nil {
		t.Fatalf("RenameColumn: %v", err)
	}
	if store.renamed != [2]string{"velho", "novo_nome"} {
		t.Fatalf("renomeado = %v", store.renamed)
	}
}

func TestChangeColumnTypeRejectsUnknownType(t *testing.T) {
	svc := NewService(&stubStore{}, zerolog.Nop())
	if err := svc.ChangeColumnType(context.Background(), "acme", "news", "tier", ColumnType("jsonb")); !errors.Is(err, ErrInvalid) {
		t.Fatalf("esperava ErrInvalid, obteve %v", err)
	}
}

func TestParseColumnType(t *testing.T) {
	if typ, err := ParseColumnType("Number"); err != nil || typ != TypeInteger {
		t.Fatalf("ParseColumnType = %v, %v", typ, err)
	}
	if _, err := ParseColumnType("uuid"); !errors.Is(err, ErrInvalid) {
		t.Fatalf("esperava ErrInvalid, obteve %v", err)
	}
}

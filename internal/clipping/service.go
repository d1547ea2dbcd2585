package clipping

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/charismabi/handson/internal/company"
	"github.com/charismabi/handson/internal/db"
	"github.com/charismabi/handson/internal/util"
)

const cacheTTL = 60 * time.Second

// Store é o acesso a company_company usado pelo serviço.
type Store interface {
	ListCompanies(ctx context.Context, active bool, page db.Page) ([]Company, int, error)
	FindActiveByName(ctx context.Context, name string) (Company, error)
}

// Importer grava a empresa no hands-on preservando o id do clipping.
type Importer interface {
	ImportWithID(ctx context.Context, c company.Company) (int, error)
}

// Service expõe o diretório de empresas do clipping.
type Service struct {
	store    Store
	importer Importer
	cache    *redis.Client
	log      zerolog.Logger
}

func NewService(store Store, importer Importer, cache *redis.Client, logger zerolog.Logger) *Service {
	return &Service{store: store, importer: importer, cache: cache, log: logger}
}

// ListActive pagina as empresas ativas do clipping.
func (s *Service) ListActive(ctx context.Context, page db.Page) (db.Listing[Company], error) {
	return s.list(ctx, true, page)
}

// ListInactive pagina as empresas desativadas do clipping.
func (s *Service) ListInactive(ctx context.Context, page db.Page) (db.Listing[Company], error) {
	return s.list(ctx, false, page)
}

func (s *Service) list(ctx context.Context, active bool, page db.Page) (db.Listing[Company], error) {
	page = page.Normalize()
	state := "inactive"
	if active {
		state = "active"
	}
	key := fmt.Sprintf("clipping:companies:%s:%d:%d", state, page.Limit, page.Offset)

	if s.cache != nil {
		if data, err := s.cache.Get(ctx, key).Bytes(); err == nil {
			var cached db.Listing[Company]
			if json.Unmarshal(data, &cached) == nil {
				return cached, nil
			}
		}
	}

	items, total, err := s.store.ListCompanies(ctx, active, page)
	if err != nil {
		return db.Listing[Company]{}, err
	}
	listing := db.NewListing(items, total, page)

	if s.cache != nil {
		if payload, err := json.Marshal(listing); err == nil {
			_ = s.cache.Set(ctx, key, payload, cacheTTL).Err()
		}
	}
	return listing, nil
}

// TransferCompany copia uma empresa ativa do clipping para o hands-on com o
// mesmo id e devolve esse id.
func (s *Service) TransferCompany(ctx context.Context, name string) (int, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, util.Invalid("company_name obrigatório")
	}

	src, err := s.store.FindActiveByName(ctx, name)
	if err != nil {
		return 0, err
	}

	id, err := s.importer.ImportWithID(ctx, company.Company{
		ID:       src.ID,
		Name:     src.CorporateName,
		CNPJ:     src.CNPJ,
		Email:    src.Email,
		IsActive: true,
	})
	if err != nil {
		return 0, err
	}
	s.log.Info().Int("company_id", id).Str("name", src.CorporateName).Msg("empresa transferida do clipping")
	return id, nil
}

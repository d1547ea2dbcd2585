package register

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/charismabi/handson/internal/db"
	"github.com/charismabi/handson/internal/ident"
	"github.com/charismabi/handson/internal/metrics"
	"github.com/charismabi/handson/internal/monitor"
)

// Store é o lado hands-on do registro.
type Store interface {
	SetDeleted(ctx context.Context, ref ident.Ref, id int64, deleted bool) (Previous, error)
	List(ctx context.Context, ref ident.Ref, f Filter, page db.Page) ([]Record, int, error)
}

// Mirror grava is_active da notícia no banco clipping.
type Mirror interface {
	SetNewsActive(ctx context.Context, newsCode string, active bool) error
}

// PendingStore guarda espelhamentos que não puderam ser concluídos nem revertidos.
type PendingStore interface {
	Add(ctx context.Context, m PendingMirror) error
	List(ctx context.Context) ([]PendingMirror, error)
	Remove(ctx context.Context, m PendingMirror) error
}

var defaultBackoff = []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}

// Service executa as transições ACTIVE ⇄ DELETED.
type Service struct {
	store    Store
	mirror   Mirror
	pending  PendingStore
	notifier monitor.Notifier
	log      zerolog.Logger
	backoff  []time.Duration
}

func NewService(store Store, mirror Mirror, pending PendingStore, notifier monitor.Notifier, logger zerolog.Logger) *Service {
	return &Service{
		store:    store,
		mirror:   mirror,
		pending:  pending,
		notifier: notifier,
		log:      logger,
		backoff:  defaultBackoff,
	}
}

// MarkDeleted envia o registro para a lixeira e desativa a notícia.
func (s *Service) MarkDeleted(ctx context.Context, schema, table string, id int64) (Result, error) {
	return s.transition(ctx, schema, table, id, true)
}

// Restore tira o registro da lixeira e reativa a notícia.
func (s *Service) Restore(ctx context.Context, schema, table string, id int64) (Result, error) {
	return s.transition(ctx, schema, table, id, false)
}

func (s *Service) transition(ctx context.Context, schema, table string, id int64, deleted bool) (Result, error) {
	ref, err := ident.Resolve(schema, table)
	if err != nil {
		return Result{}, err
	}
	if id <= 0 {
		return Result{}, fmt.Errorf("%w: record_id %d", ident.ErrInvalid, id)
	}

	prev, err := s.store.SetDeleted(ctx, ref, id, deleted)
	if err != nil {
		return Result{}, err
	}
	code := prev.NewsCode
	res := Result{RecordID: id, Deleted: deleted}
	if !code.Valid || code.String == "" {
		return res, nil
	}
	res.NewsCode = code.String

	logger := s.log.With().Str("table", ref.String()).Int64("record_id", id).Str("news_code", code.String).Logger()

	mirrorErr := s.mirrorWithRetry(ctx, code.String, !deleted)
	if mirrorErr == nil {
		metrics.MirrorOutcome.WithLabelValues("mirrored").Inc()
		res.Mirrored = true
		return res, nil
	}
	if prev.Deleted == deleted {
		// A linha já estava no estado pedido; não há o que reverter.
		logger.Warn().Err(mirrorErr).Msg("espelhamento falhou, registro já estava no estado pedido")
		metrics.MirrorOutcome.WithLabelValues("compensated").Inc()
		return Result{}, fmt.Errorf("%w: %v", ErrMirrorFailed, mirrorErr)
	}
	logger.Warn().Err(mirrorErr).Msg("espelhamento falhou, revertendo registro")

	// A reversão precisa rodar mesmo com a requisição cancelada.
	compCtx := context.WithoutCancel(ctx)
	_, compErr := s.store.SetDeleted(compCtx, ref, id, prev.Deleted)
	if compErr == nil {
		metrics.MirrorOutcome.WithLabelValues("compensated").Inc()
		return Result{}, fmt.Errorf("%w: %v", ErrMirrorFailed, mirrorErr)
	}

	logger.Error().Err(compErr).Msg("reversão falhou, espelhamento enfileirado")
	metrics.MirrorOutcome.WithLabelValues("pending").Inc()
	s.enqueue(compCtx, PendingMirror{
		NewsCode: code.String,
		Active:   !deleted,
		Table:    ref,
		RecordID: id,
		Since:    time.Now().UTC(),
	}, mirrorErr, compErr)
	return res, ErrMirrorPending
}

func (s *Service) enqueue(ctx context.Context, m PendingMirror, mirrorErr, compErr error) {
	if err := s.pending.Add(ctx, m); err != nil {
		s.log.Error().Err(err).Str("news_code", m.NewsCode).Msg("falha ao gravar espelhamento pendente")
	}
	alert := monitor.AlertMessage{
		Title:    "Espelhamento pendente no clipping",
		Text:     fmt.Sprintf("espelhamento: %v; reversão: %v", mirrorErr, compErr),
		Severity: monitor.SeverityCritical,
		Fields: map[string]string{
			"table":     m.Table.String(),
			"record_id": strconv.FormatInt(m.RecordID, 10),
			"news_code": m.NewsCode,
			"active":    strconv.FormatBool(m.Active),
		},
	}
	if err := s.notifier.Notify(ctx, alert); err != nil {
		s.log.Error().Err(err).Msg("falha ao enviar alerta")
	}
}

func (s *Service) mirrorWithRetry(ctx context.Context, newsCode string, active bool) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = s.mirror.SetNewsActive(ctx, newsCode, active)
		if err == nil || !isTransient(err) || attempt >= len(s.backoff) {
			return err
		}
		timer := time.NewTimer(s.backoff[attempt])
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(err, ctx.Err())
		case <-timer.C:
		}
	}
}

// isTransient separa falhas de conexão e de serialização, que valem nova
// tentativa, das falhas definitivas.
func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return true
	}
	if code := db.PgCode(err); code != "" {
		switch {
		case len(code) == 5 && code[:2] == "08":
			return true
		case code == "40001", code == "40P01", code == "57P01":
			return true
		}
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// List devolve a página de registros ativos ou da lixeira.
func (s *Service) List(ctx context.Context, schema, table string, f Filter, page db.Page) (db.Listing[Record], error) {
	ref, err := ident.Resolve(schema, table)
	if err != nil {
		return db.Listing[Record]{}, err
	}
	page = page.Normalize()
	items, total, err := s.store.List(ctx, ref, f, page)
	if err != nil {
		return db.Listing[Record]{}, err
	}
	return db.NewListing(items, total, page), nil
}

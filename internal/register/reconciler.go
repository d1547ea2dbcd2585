package register

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/charismabi/handson/internal/metrics"
)

// Reconciler reaplica os espelhamentos pendentes.
type Reconciler struct {
	mirror  Mirror
	pending PendingStore
	log     zerolog.Logger
}

func NewReconciler(mirror Mirror, pending PendingStore, logger zerolog.Logger) *Reconciler {
	return &Reconciler{mirror: mirror, pending: pending, log: logger}
}

// Run tenta cada pendente uma vez e remove os que foram aplicados.
// Devolve quantos foram reconciliados.
func (r *Reconciler) Run(ctx context.Context) (int, error) {
	items, err := r.pending.List(ctx)
	if err != nil {
		return 0, err
	}

	done := 0
	for _, m := range items {
		if err := ctx.Err(); err != nil {
			return done, err
		}
		if err := r.mirror.SetNewsActive(ctx, m.NewsCode, m.Active); err != nil {
			r.log.Warn().Err(err).Str("news_code", m.NewsCode).Msg("reconciliação falhou")
			continue
		}
		if err := r.pending.Remove(ctx, m); err != nil {
			r.log.Error().Err(err).Str("news_code", m.NewsCode).Msg("falha ao remover pendente")
			continue
		}
		done++
		metrics.MirrorOutcome.WithLabelValues("reconciled").Inc()
		r.log.Info().Str("news_code", m.NewsCode).Bool("active", m.Active).
			Dur("pending_for", time.Since(m.Since)).Msg("espelhamento reconciliado")
	}
	metrics.PendingMirrors.Set(float64(len(items) - done))
	return done, nil
}

// Schedule registra o reconciliador no cron. O chamador inicia e para o cron.
func (r *Reconciler) Schedule(ctx context.Context, c *cron.Cron, spec string) (cron.EntryID, error) {
	return c.AddFunc(spec, func() {
		runCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if _, err := r.Run(runCtx); err != nil {
			r.log.Error().Err(err).Msg("reconciliação interrompida")
		}
	})
}

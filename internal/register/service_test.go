package register

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rs/zerolog"

	"github.com/charismabi/handson/internal/db"
	"github.com/charismabi/handson/internal/ident"
	"github.com/charismabi/handson/internal/monitor"
)

type stubStore struct {
	mu       sync.Mutex
	deleted  map[int64]bool
	codes    map[int64]string
	calls    int
	failFrom int // a partir desta chamada SetDeleted falha (0 desliga)
}

func newStubStore() *stubStore {
	return &stubStore{
		deleted: map[int64]bool{1: false, 2: false},
		codes:   map[int64]string{1: "N-1"},
	}
}

func (s *stubStore) SetDeleted(ctx context.Context, ref ident.Ref, id int64, deleted bool) (Previous, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.failFrom > 0 && s.calls >= s.failFrom {
		return Previous{}, errors.New("conexão perdida")
	}
	was, ok := s.deleted[id]
	if !ok {
		return Previous{}, ErrNotFound
	}
	s.deleted[id] = deleted
	code, ok := s.codes[id]
	return Previous{NewsCode: pgtype.Text{String: code, Valid: ok}, Deleted: was}, nil
}

func (s *stubStore) List(ctx context.Context, ref ident.Ref, f Filter, page db.Page) ([]Record, int, error) {
	return nil, 7, nil
}

type scriptedMirror struct {
	errs  []error
	calls int
	last  bool
}

func (m *scriptedMirror) SetNewsActive(ctx context.Context, newsCode string, active bool) error {
	m.calls++
	m.last = active
	if len(m.errs) == 0 {
		return nil
	}
	err := m.errs[0]
	m.errs = m.errs[1:]
	return err
}

type memPending struct {
	items map[string]PendingMirror
}

func newMemPending() *memPending { return &memPending{items: map[string]PendingMirror{}} }

func (p *memPending) Add(ctx context.Context, m PendingMirror) error {
	p.items[m.NewsCode] = m
	return nil
}

func (p *memPending) List(ctx context.Context) ([]PendingMirror, error) {
	out := make([]PendingMirror, 0, len(p.items))
	for _, m := range p.items {
		out = append(out, m)
	}
	return out, nil
}

func (p *memPending) Remove(ctx context.Context, m PendingMirror) error {
	delete(p.items, m.NewsCode)
	return nil
}

type recordingNotifier struct {
	alerts []monitor.AlertMessage
}

func (n *recordingNotifier) Notify(ctx context.Context, msg monitor.AlertMessage) error {
	n.alerts = append(n.alerts, msg)
	return nil
}

var transientErr = &pgconn.PgError{Code: "08006"}

func newTestService(store Store, mirror Mirror, pending PendingStore, notifier monitor.Notifier) *Service {
	svc := NewService(store, mirror, pending, notifier, zerolog.Nop())
	svc.backoff = []time.Duration{time.Millisecond, time.Millisecond}
	return svc
}

func TestMarkDeletedMirrors(t *testing.T) {
	store := newStubStore()
	mirror := &scriptedMirror{}
	svc := newTestService(store, mirror, newMemPending(), &recordingNotifier{})

	res, err := svc.MarkDeleted(context.Background(), "acme", "news", 1)
	if err != nil {
		t.Fatalf("MarkDeleted: %v", err)
	}
	if !res.Mirrored || res.NewsCode != "N-1" || !res.Deleted {
		t.Fatalf("resultado = %+v", res)
	}
	if mirror.calls != 1 || mirror.last {
		t.Fatalf("espelho chamado %d vezes com active=%v", mirror.calls, mirror.last)
	}
	if !store.deleted[1] {
		t.Fatal("registro deveria estar na lixeira")
	}
}

func TestRestoreWithoutNewsCodeSkipsMirror(t *testing.T) {
	store := newStubStore()
	store.deleted[2] = true
	mirror := &scriptedMirror{}
	svc := newTestService(store, mirror, newMemPending(), &recordingNotifier{})

	res, err := svc.Restore(context.Background(), "acme", "news", 2)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if mirror.calls != 0 || res.Mirrored {
		t.Fatalf("espelho não deveria ser chamado: %+v", res)
	}
	if store.deleted[2] {
		t.Fatal("registro deveria estar ativo")
	}
}

func TestTransientErrorsAreRetried(t *testing.T) {
	store := newStubStore()
	mirror := &scriptedMirror{errs: []error{transientErr, transientErr}}
	svc := newTestService(store, mirror, newMemPending(), &recordingNotifier{})

	res, err := svc.MarkDeleted(context.Background(), "acme", "news", 1)
	if err != nil {
		t.Fatalf("MarkDeleted: %v", err)
	}
	if mirror.calls != 3 || !res.Mirrored {
		t.Fatalf("chamadas = %d, resultado = %+v", mirror.calls, res)
	}
}

func TestPermanentErrorCompensates(t *testing.T) {
	store := newStubStore()
	mirror := &scriptedMirror{errs: []error{&pgconn.PgError{Code: "42501"}}}
	pending := newMemPending()
	svc := newTestService(store, mirror, pending, &recordingNotifier{})

	_, err := svc.MarkDeleted(context.Background(), "acme", "news", 1)
	if !errors.Is(err, ErrMirrorFailed) {
		t.Fatalf("esperava ErrMirrorFailed, obteve %v", err)
	}
	if mirror.calls != 1 {
		t.Fatalf("erro definitivo não deve ser repetido, chamadas = %d", mirror.calls)
	}
	if store.deleted[1] {
		t.Fatal("reversão não aplicada")
	}
	if len(pending.items) != 0 {
		t.Fatal("nada deveria ficar pendente")
	}
}

func TestPermanentErrorKeepsAlreadyDeletedRow(t *testing.T) {
	store := newStubStore()
	store.deleted[1] = true
	mirror := &scriptedMirror{errs: []error{&pgconn.PgError{Code: "42501"}}}
	pending := newMemPending()
	svc := newTestService(store, mirror, pending, &recordingNotifier{})

	_, err := svc.MarkDeleted(context.Background(), "acme", "news", 1)
	if !errors.Is(err, ErrMirrorFailed) {
		t.Fatalf("esperava ErrMirrorFailed, obteve %v", err)
	}
	if !store.deleted[1] {
		t.Fatal("registro que já estava na lixeira foi restaurado")
	}
	if store.calls != 1 {
		t.Fatalf("SetDeleted chamado %d vezes, esperado 1", store.calls)
	}
	if len(pending.items) != 0 {
		t.Fatal("nada deveria ficar pendente")
	}
}

func TestExhaustedRetriesCompensate(t *testing.T) {
	store := newStubStore()
	mirror := &scriptedMirror{errs: []error{transientErr, transientErr, transientErr}}
	svc := newTestService(store, mirror, newMemPending(), &recordingNotifier{})

	if _, err := svc.MarkDeleted(context.Background(), "acme", "news", 1); !errors.Is(err, ErrMirrorFailed) {
		t.Fatalf("esperava ErrMirrorFailed, obteve %v", err)
	}
	if mirror.calls != 3 {
		t.Fatalf("chamadas = %d, esperado 3", mirror.calls)
	}
	if store.deleted[1] {
		t.Fatal("reversão não aplicada")
	}
}

func TestFailedCompensationQueuesPending(t *testing.T) {
	store := newStubStore()
	store.failFrom = 2
	mirror := &scriptedMirror{errs: []error{errors.New("permissão negada")}}
	pending := newMemPending()
	notifier := &recordingNotifier{}
	svc := newTestService(store, mirror, pending, notifier)

	res, err := svc.MarkDeleted(context.Background(), "acme", "news", 1)
	if !errors.Is(err, ErrMirrorPending) {
		t.Fatalf("esperava ErrMirrorPending, obteve %v", err)
	}
	if res.NewsCode != "N-1" || res.Mirrored {
		t.Fatalf("resultado = %+v", res)
	}
	m, ok := pending.items["N-1"]
	if !ok || m.Active || m.RecordID != 1 || m.Table.Table != "news" {
		t.Fatalf("pendente = %+v", pending.items)
	}
	if len(notifier.alerts) != 1 || notifier.alerts[0].Severity != monitor.SeverityCritical {
		t.Fatalf("alertas = %+v", notifier.alerts)
	}
}

func TestTransitionErrors(t *testing.T) {
	svc := newTestService(newStubStore(), &scriptedMirror{}, newMemPending(), &recordingNotifier{})

	if _, err := svc.MarkDeleted(context.Background(), "acme", "news", 99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("esperava ErrNotFound, obteve %v", err)
	}
	if _, err := svc.MarkDeleted(context.Background(), "acme", "news", 0); !errors.Is(err, ident.ErrInvalid) {
		t.Fatalf("esperava ErrInvalid, obteve %v", err)
	}
	if _, err := svc.Restore(context.Background(), "!!", "news", 1); !errors.Is(err, ident.ErrInvalid) {
		t.Fatalf("esperava ErrInvalid, obteve %v", err)
	}
}

func TestListReturnsEmptySliceWithTotal(t *testing.T) {
	svc := newTestService(newStubStore(), &scriptedMirror{}, newMemPending(), &recordingNotifier{})

	listing, err := svc.List(context.Background(), "acme", "news", Filter{}, db.Page{Limit: 1000, Offset: 50})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if listing.Items == nil || len(listing.Items) != 0 {
		t.Fatalf("itens = %#v", listing.Items)
	}
	if listing.Total != 7 || listing.Page.Limit != db.MaxLimit || listing.Page.Offset != 50 {
		t.Fatalf("listing = %+v", listing)
	}
}

func TestIsTransient(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{&pgconn.PgError{Code: "08006"}, true},
		{&pgconn.PgError{Code: "40001"}, true},
		{&pgconn.PgError{Code: "40P01"}, true},
		{&pgconn.PgError{Code: "57P01"}, true},
		{&pgconn.PgError{Code: "23505"}, false},
		{context.DeadlineExceeded, true},
		{context.Canceled, false},
		{&net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, true},
		{errors.New("qualquer"), false},
	}
	for _, tc := range cases {
		if got := isTransient(tc.err); got != tc.want {
			t.Errorf("isTransient(%v) = %v, esperado %v", tc.err, got, tc.want)
		}
	}
}

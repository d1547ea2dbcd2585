// Package register controla a exclusão lógica das linhas das tabelas
// dinâmicas e espelha o estado em news_charisma.clippings_news.is_active.
package register

import (
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/charismabi/handson/internal/ident"
)

var (
	ErrNotFound = errors.New("registro não encontrado")
	// ErrMirrorFailed indica que o espelhamento falhou e a alteração local
	// foi revertida.
	ErrMirrorFailed = errors.New("falha ao espelhar registro no clipping")
	// ErrMirrorPending indica que nem o espelhamento nem a reversão deram
	// certo; o espelhamento ficou na fila do reconciliador.
	ErrMirrorPending = errors.New("espelhamento pendente de reconciliação")
)

// Record é uma linha da tabela dinâmica com as colunas do tenant.
type Record = map[string]any

// Filter seleciona linhas ativas ou na lixeira, opcionalmente por período.
type Filter struct {
	Deleted bool
	From    time.Time
	To      time.Time
}

// HasRange informa se o filtro restringe por data.
func (f Filter) HasRange() bool {
	return !f.From.IsZero() && !f.To.IsZero()
}

// Previous é o estado da linha lido, sob lock, antes da alteração.
type Previous struct {
	NewsCode pgtype.Text
	Deleted  bool
}

// Result descreve uma transição de estado concluída.
type Result struct {
	RecordID int64  `json:"record_id"`
	Deleted  bool   `json:"is_deleted"`
	NewsCode string `json:"news_code,omitempty"`
	Mirrored bool   `json:"mirrored"`
}

// PendingMirror é um is_active que ainda precisa chegar ao clipping.
type PendingMirror struct {
	NewsCode string    `json:"news_code"`
	Active   bool      `json:"active"`
	Table    ident.Ref `json:"table"`
	RecordID int64     `json:"record_id"`
	Since    time.Time `json:"since"`

	raw string
}

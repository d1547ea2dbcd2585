package register

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
)

const pendingKey = "register:pending_mirrors"

// removeIfUnchanged apaga o campo apenas se o valor ainda for o lido pelo
// reconciliador; um Add mais recente para o mesmo news_code é preservado.
var removeIfUnchanged = redis.NewScript(`
if redis.call("HGET", KEYS[1], ARGV[1]) == ARGV[2] then
    return redis.call("HDEL", KEYS[1], ARGV[1])
end
return 0
`)

// RedisPendingStore mantém os espelhamentos pendentes em um hash do Redis,
// um campo por news_code. O último estado gravado para a notícia prevalece.
type RedisPendingStore struct {
	rdb *redis.Client
	key string
}

func NewRedisPendingStore(rdb *redis.Client) *RedisPendingStore {
	return &RedisPendingStore{rdb: rdb, key: pendingKey}
}

func (s *RedisPendingStore) Add(ctx context.Context, m PendingMirror) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return s.rdb.HSet(ctx, s.key, m.NewsCode, payload).Err()
}

// List devolve os pendentes do mais antigo para o mais novo.
func (s *RedisPendingStore) List(ctx context.Context) ([]PendingMirror, error) {
	vals, err := s.rdb.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, err
	}
	out := make([]PendingMirror, 0, len(vals))
	for field, raw := range vals {
		var m PendingMirror
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			return nil, fmt.Errorf("pendente %s: %w", field, err)
		}
		m.raw = raw
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Since.Before(out[j].Since) })
	return out, nil
}

func (s *RedisPendingStore) Remove(ctx context.Context, m PendingMirror) error {
	raw := m.raw
	if raw == "" {
		payload, err := json.Marshal(m)
		if err != nil {
			return err
		}
		raw = string(payload)
	}
	return removeIfUnchanged.Run(ctx, s.rdb, []string{s.key}, m.NewsCode, raw).Err()
}

// Count informa quantos espelhamentos aguardam.
func (s *RedisPendingStore) Count(ctx context.Context) (int64, error) {
	return s.rdb.HLen(ctx, s.key).Result()
}

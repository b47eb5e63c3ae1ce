package scorestore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/survey-dashboard/internal/domain/survey"
)

// ValkeyStore shares score views between instances through a
// Valkey-compatible database.
type ValkeyStore struct {
	client valkey.Client
	prefix string
}

// NewValkeyStore constructs a new store backed by Valkey.
func NewValkeyStore(client valkey.Client, prefix string) *ValkeyStore {
	if prefix == "" {
		prefix = "survey"
	}
	return &ValkeyStore{client: client, prefix: prefix}
}

// Get implements survey.ScoreStore.
func (s *ValkeyStore) Get(ctx context.Context, key string) (survey.ScoreView, bool, error) {
	if key == "" {
		return survey.ScoreView{}, false, nil
	}
	payload, err := s.client.Do(ctx, s.client.B().Get().Key(s.viewKey(key)).Build()).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return survey.ScoreView{}, false, nil
		}
		return survey.ScoreView{}, false, err
	}
	var view survey.ScoreView
	if err := json.Unmarshal([]byte(payload), &view); err != nil {
		return survey.ScoreView{}, false, err
	}
	return view, true, nil
}

// Save implements survey.ScoreStore.
func (s *ValkeyStore) Save(ctx context.Context, key string, view survey.ScoreView, ttl time.Duration) error {
	if key == "" {
		return nil
	}
	payload, err := json.Marshal(view)
	if err != nil {
		return err
	}
	builder := s.client.B().Set().Key(s.viewKey(key)).Value(string(payload))
	var cmd valkey.Completed
	if ttl > 0 {
		if ttl < time.Second {
			ttl = time.Second
		}
		cmd = builder.Ex(ttl).Build()
	} else {
		cmd = builder.Build()
	}
	return s.client.Do(ctx, cmd).Error()
}

func (s *ValkeyStore) viewKey(key string) string {
	return s.prefix + ":scores:" + key
}

var _ survey.ScoreStore = (*ValkeyStore)(nil)

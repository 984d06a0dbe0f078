// Package sessionstore persists conversation sessions as full JSON snapshots.
// Writes overwrite the previous snapshot (last write wins).
package sessionstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/psds-microservice/support-chat/internal/model"
)

const DefaultKeyPrefix = "support_chat:session:"

// Store is the load/save contract of the dialogue engine. Load returns
// errs.ErrSessionNotFound when nothing is stored under id.
type Store interface {
	Load(ctx context.Context, id string) (*model.Session, error)
	Save(ctx context.Context, s *model.Session) error
	NextTicketSequence(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}

// Lister is implemented by backends that can enumerate stored sessions.
type Lister interface {
	List(ctx context.Context) ([]*model.Session, error)
}

func encode(s *model.Session) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode session %s: %w", s.ID, err)
	}
	return data, nil
}

func decode(data []byte) (*model.Session, error) {
	var s model.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}

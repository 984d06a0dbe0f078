package dialogue

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/psds-microservice/support-chat/internal/errs"
	"github.com/psds-microservice/support-chat/internal/model"
)

// Store is the slice of the session store a conversation needs.
type Store interface {
	Load(ctx context.Context, id string) (*model.Session, error)
	Save(ctx context.Context, s *model.Session) error
}

// Conversation serializes the turns of one session. The typing delay before a
// reply is a single cancellable slot: a newer turn or a reset supersedes the
// reply still waiting for it.
type Conversation struct {
	mu      sync.Mutex
	id      string
	session *model.Session
	machine *Machine
	store   Store
	delay   time.Duration

	gen     uint64
	pending chan struct{}
}

// Start begins a new session under id and persists its welcome message.
func Start(ctx context.Context, id string, machine *Machine, store Store, delay time.Duration) *Conversation {
	c := &Conversation{id: id, machine: machine, store: store, delay: delay}
	c.session = machine.NewSession(id)
	c.persist(ctx)
	return c
}

// Resume continues a session already loaded from store.
func Resume(id string, s *model.Session, machine *Machine, store Store, delay time.Duration) *Conversation {
	s.ID = id
	return &Conversation{id: id, session: s, machine: machine, store: store, delay: delay}
}

// Snapshot returns a copy of the current session.
func (c *Conversation) Snapshot() *model.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Clone()
}

// Send records the user turn at once and replies after the typing delay.
// It returns errs.ErrTurnSuperseded when a newer turn or a reset arrives
// during the delay; the user message stays in the transcript.
func (c *Conversation) Send(ctx context.Context, turn Turn) (Reply, error) {
	if turn.Empty() {
		return Reply{}, errs.ErrEmptyInput
	}

	c.mu.Lock()
	gen, cancel := c.supersede()
	c.session.Append(c.machine.UserMessage(turn))
	c.persist(ctx)
	c.mu.Unlock()

	if c.delay > 0 {
		timer := time.NewTimer(c.delay)
		select {
		case <-timer.C:
		case <-cancel:
			timer.Stop()
			return Reply{}, errs.ErrTurnSuperseded
		case <-ctx.Done():
			timer.Stop()
			c.release(gen)
			return Reply{}, ctx.Err()
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return Reply{}, errs.ErrTurnSuperseded
	}
	c.pending = nil
	reply := c.machine.Respond(ctx, c.session, turn)
	c.persist(ctx)
	reply.Session = c.session.Clone()
	return reply, nil
}

// Reset discards the session and starts over with the welcome message.
func (c *Conversation) Reset(ctx context.Context) *model.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.supersede()
	c.pending = nil
	c.session = c.machine.NewSession(c.id)
	c.persist(ctx)
	slog.Info("dialogue: session reset", "session", c.id)
	return c.session.Clone()
}

// supersede cancels the pending reply and opens a new slot. Caller holds mu.
func (c *Conversation) supersede() (uint64, chan struct{}) {
	if c.pending != nil {
		close(c.pending)
	}
	c.gen++
	c.pending = make(chan struct{})
	return c.gen, c.pending
}

func (c *Conversation) release(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen == gen {
		c.pending = nil
	}
}

// persist saves a snapshot. A failed save is logged and the in-memory session
// stays authoritative. Caller holds mu.
func (c *Conversation) persist(ctx context.Context) {
	if err := c.store.Save(context.WithoutCancel(ctx), c.session.Clone()); err != nil {
		slog.Warn("dialogue: save session failed", "session", c.id, "error", err)
	}
}

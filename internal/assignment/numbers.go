package assignment

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

const ticketBase = 100000

// Sequencer hands out ticket sequence values that are unique across the
// session store.
type Sequencer interface {
	NextTicketSequence(ctx context.Context) (int64, error)
}

// Numbers formats ticket numbers as TKT- followed by six digits. Numbers issued
// by one process are strictly increasing: when the sequencer fails or goes
// backwards the last issued value is incremented instead.
type Numbers struct {
	mu   sync.Mutex
	seq  Sequencer
	last int64
}

func NewNumbers(seq Sequencer) *Numbers {
	return &Numbers{seq: seq}
}

func (n *Numbers) Next(ctx context.Context) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	v, err := n.seq.NextTicketSequence(ctx)
	if err != nil {
		slog.Warn("assignment: ticket sequence unavailable, using local counter", "error", err)
		v = n.last + 1
	} else if v <= n.last {
		v = n.last + 1
	}
	n.last = v
	return FormatTicketNumber(v)
}

func FormatTicketNumber(seq int64) string {
	return fmt.Sprintf("TKT-%06d", ticketBase+seq)
}

// LocalSequence is a process-local Sequencer.
type LocalSequence struct {
	n atomic.Int64
}

func (s *LocalSequence) NextTicketSequence(context.Context) (int64, error) {
	return s.n.Add(1), nil
}

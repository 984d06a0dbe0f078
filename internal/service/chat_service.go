package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/psds-microservice/support-chat/internal/dialogue"
	"github.com/psds-microservice/support-chat/internal/directory"
	"github.com/psds-microservice/support-chat/internal/errs"
	"github.com/psds-microservice/support-chat/internal/kafka"
	"github.com/psds-microservice/support-chat/internal/model"
)

// ChatServicer is the surface used by the HTTP handlers and the chat command.
type ChatServicer interface {
	CreateSession(ctx context.Context) (*model.Session, error)
	OpenSession(ctx context.Context, id string) (*model.Session, error)
	GetSession(ctx context.Context, id string) (*model.Session, error)
	Send(ctx context.Context, id string, turn dialogue.Turn) (dialogue.Reply, error)
	SelectProduct(ctx context.Context, id, productID string) (dialogue.Reply, error)
	Reset(ctx context.Context, id string) (*model.Session, error)
	Tickets(ctx context.Context, id string) ([]model.Ticket, error)
	Menu() []dialogue.MenuOption
	LookupOrder(orderNumber string) (model.Order, error)
	Agents() []model.Agent
}

// ChatService keeps one live Conversation per session id. Conversations are
// opened lazily from the store and dropped again once idle for longer than the
// idle timeout with no request in flight.
type ChatService struct {
	machine *dialogue.Machine
	dir     *directory.Directory
	store   dialogue.Store
	events  kafka.EventPublisher
	delay   time.Duration
	idle    time.Duration
	now     func() time.Time

	mu        sync.Mutex
	convs     map[string]*liveConversation
	lastSweep time.Time
}

type liveConversation struct {
	conv     *dialogue.Conversation
	lastUsed time.Time
	inflight int
}

func NewChatService(machine *dialogue.Machine, dir *directory.Directory, store dialogue.Store, events kafka.EventPublisher, delay time.Duration) *ChatService {
	return &ChatService{
		machine: machine,
		dir:     dir,
		store:   store,
		events:  events,
		delay:   delay,
		now:     time.Now,
		convs:   make(map[string]*liveConversation),
	}
}

// WithIdleTimeout evicts conversations unused for d. Zero keeps them for the
// life of the process.
func (s *ChatService) WithIdleTimeout(d time.Duration) *ChatService {
	s.idle = d
	return s
}

// WithClock overrides the clock used for idle eviction.
func (s *ChatService) WithClock(now func() time.Time) *ChatService {
	s.now = now
	return s
}

// Live returns the number of conversations held in memory.
func (s *ChatService) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.convs)
}

func (s *ChatService) CreateSession(ctx context.Context) (*model.Session, error) {
	c, release, err := s.acquire(ctx, uuid.NewString(), true)
	if err != nil {
		return nil, err
	}
	defer release()
	return c.Snapshot(), nil
}

// OpenSession resumes id or starts it when nothing is stored.
func (s *ChatService) OpenSession(ctx context.Context, id string) (*model.Session, error) {
	c, release, err := s.acquire(ctx, id, true)
	if err != nil {
		return nil, err
	}
	defer release()
	return c.Snapshot(), nil
}

func (s *ChatService) GetSession(ctx context.Context, id string) (*model.Session, error) {
	c, release, err := s.acquire(ctx, id, false)
	if err != nil {
		return nil, err
	}
	defer release()
	return c.Snapshot(), nil
}

func (s *ChatService) Send(ctx context.Context, id string, turn dialogue.Turn) (dialogue.Reply, error) {
	c, release, err := s.acquire(ctx, id, false)
	if err != nil {
		return dialogue.Reply{}, err
	}
	reply, err := c.Send(ctx, turn)
	release()
	if err != nil {
		return dialogue.Reply{}, err
	}
	if reply.Ticket != nil {
		s.publishTicket(ctx, id, reply)
	}
	return reply, nil
}

// SelectProduct is a user turn asking about the product.
func (s *ChatService) SelectProduct(ctx context.Context, id, productID string) (dialogue.Reply, error) {
	p, err := s.dir.Product(productID)
	if err != nil {
		return dialogue.Reply{}, err
	}
	return s.Send(ctx, id, dialogue.Turn{Text: "Tell me more about " + p.Name})
}

func (s *ChatService) Reset(ctx context.Context, id string) (*model.Session, error) {
	c, release, err := s.acquire(ctx, id, false)
	if err != nil {
		return nil, err
	}
	snap := c.Reset(ctx)
	release()
	s.events.Publish(ctx, kafka.TicketEvent{Event: kafka.EventSessionReset, SessionID: id})
	return snap, nil
}

func (s *ChatService) Tickets(ctx context.Context, id string) ([]model.Ticket, error) {
	snap, err := s.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if snap.Tickets == nil {
		return []model.Ticket{}, nil
	}
	return snap.Tickets, nil
}

func (s *ChatService) Menu() []dialogue.MenuOption {
	return append([]dialogue.MenuOption(nil), dialogue.Menu...)
}

func (s *ChatService) LookupOrder(orderNumber string) (model.Order, error) {
	num, ok := directory.ExtractOrderNumber(orderNumber)
	if !ok || !strings.EqualFold(num, strings.TrimSpace(orderNumber)) {
		return model.Order{}, errs.ErrInvalidOrderFormat
	}
	return s.dir.LookupOrder(num)
}

func (s *ChatService) Agents() []model.Agent {
	return s.dir.Agents()
}

// acquire returns the live conversation for id, loading it from the store on
// first use. Unless create is set, an id that is neither live nor stored yields
// errs.ErrSessionNotFound. The conversation is not evicted until release runs.
func (s *ChatService) acquire(ctx context.Context, id string, create bool) (*dialogue.Conversation, func(), error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil, errs.ErrSessionNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweep()
	lc, ok := s.convs[id]
	if !ok {
		c, err := s.load(ctx, id, create)
		if err != nil {
			return nil, nil, err
		}
		lc = &liveConversation{conv: c}
		s.convs[id] = lc
	}
	lc.inflight++
	lc.lastUsed = s.now()
	return lc.conv, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		lc.inflight--
		lc.lastUsed = s.now()
	}, nil
}

// load reads id once from the store. A read failure other than not-found
// starts a fresh session. Caller holds mu.
func (s *ChatService) load(ctx context.Context, id string, create bool) (*dialogue.Conversation, error) {
	stored, err := s.store.Load(ctx, id)
	switch {
	case err == nil && stored != nil:
		return dialogue.Resume(id, stored, s.machine, s.store, s.delay), nil
	case errors.Is(err, errs.ErrSessionNotFound):
		if !create {
			return nil, errs.ErrSessionNotFound
		}
	default:
		slog.Warn("service: load session failed, starting fresh", "session", id, "error", err)
	}
	return dialogue.Start(ctx, id, s.machine, s.store, s.delay), nil
}

// sweep drops conversations idle past the timeout, at most twice per timeout
// period. Their state is already persisted, so a later request reloads it.
// Caller holds mu.
func (s *ChatService) sweep() {
	if s.idle <= 0 {
		return
	}
	now := s.now()
	if now.Sub(s.lastSweep) < s.idle/2 {
		return
	}
	s.lastSweep = now
	for id, lc := range s.convs {
		if lc.inflight == 0 && now.Sub(lc.lastUsed) > s.idle {
			delete(s.convs, id)
			slog.Debug("service: evicted idle conversation", "session", id)
		}
	}
}

func (s *ChatService) publishTicket(ctx context.Context, sessionID string, reply dialogue.Reply) {
	t := reply.Ticket
	ev := kafka.TicketEvent{
		Event:             kafka.EventTicketCreated,
		SessionID:         sessionID,
		TicketNumber:      t.TicketNumber,
		IssueType:         t.IssueType,
		LinkedOrderNumber: t.LinkedOrderNumber,
		LinkedAttachment:  t.LinkedAttachment,
		AgentID:           t.AssignedAgentID,
		OccurredAt:        t.CreatedAt,
	}
	if reply.Assignment != nil {
		avail := reply.Assignment.Available
		ev.AgentAvailable = &avail
	}
	s.events.Publish(ctx, ev)
}

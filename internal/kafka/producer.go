package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/psds-microservice/support-chat/internal/model"
	"github.com/segmentio/kafka-go"
)

const (
	EventTicketCreated = "ticket.created"
	EventSessionReset  = "session.reset"
)

// TicketEvent is the value written to the ticket topic.
type TicketEvent struct {
	Event             string          `json:"event"`
	SessionID         string          `json:"session_id"`
	TicketNumber      string          `json:"ticket_number,omitempty"`
	IssueType         model.IssueType `json:"issue_type,omitempty"`
	LinkedOrderNumber string          `json:"linked_order_number,omitempty"`
	LinkedAttachment  string          `json:"linked_attachment,omitempty"`
	AgentID           string          `json:"agent_id,omitempty"`
	AgentAvailable    *bool           `json:"agent_available,omitempty"`
	OccurredAt        time.Time       `json:"occurred_at"`
}

// EventPublisher is what the chat service needs; tests substitute a recorder.
type EventPublisher interface {
	Publish(ctx context.Context, ev TicketEvent)
}

// Producer writes events to Kafka, best effort: failures are logged and never
// reach the conversation.
type Producer struct {
	writer *kafka.Writer
	topic  string
}

// NewProducer returns a no-op producer when brokers or topic are empty.
func NewProducer(brokers []string, topic string) *Producer {
	if len(brokers) == 0 || topic == "" {
		return &Producer{}
	}
	return &Producer{
		topic: topic,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

// Enabled reports whether events are actually written.
func (p *Producer) Enabled() bool { return p.writer != nil }

// Publish keys the message by session id so one session's events stay ordered.
func (p *Producer) Publish(ctx context.Context, ev TicketEvent) {
	if p.writer == nil {
		return
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	body, err := json.Marshal(ev)
	if err != nil {
		slog.Error("kafka: marshal ticket event", "error", err)
		return
	}
	msg := kafka.Message{Key: []byte(ev.SessionID), Value: body}
	if err := p.writer.WriteMessages(context.WithoutCancel(ctx), msg); err != nil {
		slog.Warn("kafka: write ticket event", "event", ev.Event, "topic", p.topic, "error", err)
	}
}

func (p *Producer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

// ParseBrokers splits "host1:9092,host2:9092".
func ParseBrokers(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

package kafka

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseBrokers(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"localhost:9092", []string{"localhost:9092"}},
		{" a:9092, ,b:9092 ", []string{"a:9092", "b:9092"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseBrokers(tt.in), tt.in)
	}
}

func TestDisabledProducerIsNoop(t *testing.T) {
	p := NewProducer(nil, "support.tickets")
	assert.False(t, p.Enabled())
	p.Publish(context.Background(), TicketEvent{Event: EventTicketCreated, SessionID: "s1"})
	assert.NoError(t, p.Close())

	assert.False(t, NewProducer([]string{"localhost:9092"}, "").Enabled())
}

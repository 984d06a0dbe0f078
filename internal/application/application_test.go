package application

import (
	"context"
	"testing"

	"github.com/psds-microservice/support-chat/internal/config"
	"github.com/psds-microservice/support-chat/internal/dialogue"
	"github.com/psds-microservice/support-chat/internal/errs"
	"github.com/psds-microservice/support-chat/internal/sessionstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenStore(t *testing.T) {
	store, err := OpenStore(&config.Config{SessionStore: config.StoreMemory})
	require.NoError(t, err)
	assert.IsType(t, &sessionstore.MemoryStore{}, store)

	_, err = OpenStore(&config.Config{SessionStore: "mongo"})
	assert.ErrorIs(t, err, errs.ErrUnknownStore)
}

func TestNewCoreMemory(t *testing.T) {
	cfg := &config.Config{SessionStore: config.StoreMemory, AssistantName: "Zazu"}
	core, err := NewCore(cfg)
	require.NoError(t, err)
	defer core.Close()

	ctx := context.Background()
	s, err := core.Service.CreateSession(ctx)
	require.NoError(t, err)
	reply, err := core.Service.Send(ctx, s.ID, dialogue.Turn{Text: "5"})
	require.NoError(t, err)
	require.NotNil(t, reply.Ticket)
	assert.Equal(t, "TKT-100001", reply.Ticket.TicketNumber)
}

func TestNewCoreRejectsInvalidConfig(t *testing.T) {
	_, err := NewCore(&config.Config{SessionStore: config.StoreRedis})
	assert.Error(t, err)

	_, err = NewCore(&config.Config{SessionStore: config.StoreMemory, DirectoryFile: "/does/not/exist.yaml"})
	assert.ErrorContains(t, err, "directory")
}

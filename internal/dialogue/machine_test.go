package dialogue

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/psds-microservice/support-chat/internal/assignment"
	"github.com/psds-microservice/support-chat/internal/directory"
	"github.com/psds-microservice/support-chat/internal/intent"
	"github.com/psds-microservice/support-chat/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = func() time.Time { return time.Date(2025, 9, 1, 14, 30, 0, 0, time.UTC) }

func newTestMachine(t *testing.T) *Machine {
	t.Helper()
	dir, err := directory.Default()
	require.NoError(t, err)
	engine := assignment.NewEngine(dir, assignment.NewNumbers(&assignment.LocalSequence{})).WithClock(fixedNow)
	return NewMachine(intent.New(dir.Products(), "Zazu"), dir, engine, "Zazu").WithClock(fixedNow)
}

// send appends the user turn and runs the machine, like Conversation.Send
// with no delay.
func send(m *Machine, s *model.Session, text string, att *model.Attachment) Reply {
	turn := Turn{Text: text, Attachment: att}
	s.Append(m.UserMessage(turn))
	return m.Respond(context.Background(), s, turn)
}

func lastText(r Reply) string {
	if len(r.Messages) == 0 {
		return ""
	}
	return r.Messages[len(r.Messages)-1].Text
}

func TestNewSession(t *testing.T) {
	s := newTestMachine(t).NewSession("s1")
	require.Len(t, s.Transcript, 1)
	assert.Equal(t, model.SideSystem, s.Transcript[0].Side)
	assert.Equal(t, "Welcome! I'm Zazu, your AI support assistant. How can I help you today?", s.Transcript[0].Text)
	assert.Equal(t, "14:30", s.Transcript[0].Timestamp)
	assert.Len(t, s.Transcript[0].Suggestions, 4)
	assert.Equal(t, model.ModeIdle, s.Mode)
	assert.True(t, s.MenuVisible)
}

func TestMissingItemThenOrderNumber(t *testing.T) {
	m := newTestMachine(t)
	s := m.NewSession("s1")

	r := send(m, s, "My order never arrived", nil)
	assert.Equal(t, model.ModeAwaitingOrderNumber, s.Mode)
	assert.Equal(t, model.IssueMissingItem, s.ActiveIssueType)
	assert.Equal(t, promptMissingItem, lastText(r))
	assert.Nil(t, r.Ticket)

	r = send(m, s, "ORD111222", nil)
	require.NotNil(t, r.Ticket)
	assert.Equal(t, "ORD111222", r.Ticket.LinkedOrderNumber)
	assert.Equal(t, model.IssueMissingItem, r.Ticket.IssueType)
	// The returns specialist is unavailable in the seed roster.
	assert.Equal(t, "agent1", r.Ticket.AssignedAgentID)
	assert.Equal(t, model.ModeIdle, s.Mode)
	assert.Equal(t, model.IssueNone, s.ActiveIssueType)
	assert.Equal(t, r.Ticket.TicketNumber, s.OpenTicketNumber)
	require.NotNil(t, s.FoundOrder)
	assert.Equal(t, "Sneakers", s.FoundOrder.ProductName)
	assert.Len(t, s.Tickets, 1)
	assert.Contains(t, lastText(r), "Order ORD111222 found!")
	assert.Contains(t, lastText(r), "Your order ORD111222 has been linked to this ticket.")
	assert.Contains(t, lastText(r), "Sarah Johnson has been assigned to your case")

	// Re-sending the order number is a plain lookup.
	r = send(m, s, "ORD111222", nil)
	assert.Nil(t, r.Ticket)
	assert.Len(t, s.Tickets, 1)
	assert.Equal(t, orderFoundSuggestions, r.Messages[0].Suggestions)
}

func TestOrderNotFoundStillCreatesTicket(t *testing.T) {
	m := newTestMachine(t)
	s := m.NewSession("s1")

	send(m, s, "I got the wrong item", nil)
	require.Equal(t, model.ModeAwaitingOrderNumber, s.Mode)

	r := send(m, s, "it was ord999999", nil)
	require.NotNil(t, r.Ticket)
	assert.Empty(t, r.Ticket.LinkedOrderNumber)
	assert.Equal(t, model.IssueWrongItem, r.Ticket.IssueType)
	assert.Equal(t, model.ModeIdle, s.Mode)
	assert.Contains(t, lastText(r), "couldn't find order ORD999999")

	// Idle lookup of the same unknown order references the open ticket.
	r = send(m, s, "ORD999999", nil)
	assert.Nil(t, r.Ticket)
	assert.Len(t, s.Tickets, 1)
	assert.Contains(t, lastText(r), "Your ticket "+s.OpenTicketNumber+" is still open.")
}

func TestInvalidOrderNumberReprompts(t *testing.T) {
	m := newTestMachine(t)
	s := m.NewSession("s1")
	send(m, s, "I was charged twice", nil)
	require.Equal(t, model.ModeAwaitingOrderNumber, s.Mode)
	require.Equal(t, model.IssueBillingIssue, s.ActiveIssueType)

	r := send(m, s, "ORD12", nil)
	assert.Equal(t, promptInvalidOrder, lastText(r))
	assert.Equal(t, model.ModeAwaitingOrderNumber, s.Mode)
	assert.Nil(t, r.Ticket)
}

func TestDamagedFlowWithPhoto(t *testing.T) {
	m := newTestMachine(t)
	s := m.NewSession("s1")

	r := send(m, s, "3", nil)
	assert.Equal(t, model.ModeAwaitingImageUpload, s.Mode)
	assert.Equal(t, promptDamagedItem, lastText(r))
	assert.False(t, s.MenuVisible)

	r = send(m, s, "here you go", nil)
	assert.Equal(t, promptPhotoAgain, lastText(r))
	assert.Equal(t, model.ModeAwaitingImageUpload, s.Mode)

	photo := &model.Attachment{Name: "dent.jpg", Locator: "uploads/dent.jpg", MimeType: "image/jpeg"}
	r = send(m, s, "", photo)
	assert.Equal(t, promptPhotoReceived, lastText(r))
	assert.Equal(t, model.ModeAwaitingOrderNumber, s.Mode)
	assert.Equal(t, "uploads/dent.jpg", s.PendingAttachmentLocator)

	r = send(m, s, "ORD123456", nil)
	require.NotNil(t, r.Ticket)
	assert.Equal(t, model.IssueDamagedItem, r.Ticket.IssueType)
	assert.Equal(t, "uploads/dent.jpg", r.Ticket.LinkedAttachment)
	assert.Contains(t, lastText(r), "The image you provided has been attached to the ticket.")
	assert.Empty(t, s.PendingAttachmentLocator)
	assert.Equal(t, model.ModeIdle, s.Mode)
}

func TestDamagedKeywordsAlwaysAskForPhoto(t *testing.T) {
	m := newTestMachine(t)
	for _, text := range []string{
		"my lamp arrived damaged",
		"the screen is broken and I want a refund",
		"defective charger",
		"it's not working",
		"the table is scratched, wrong color too",
	} {
		t.Run(text, func(t *testing.T) {
			s := m.NewSession("s1")
			r := send(m, s, text, nil)
			assert.Equal(t, model.ModeAwaitingImageUpload, s.Mode)
			assert.Equal(t, model.IssueDamagedItem, s.ActiveIssueType)
			assert.Equal(t, promptDamagedItem, lastText(r))
		})
	}
}

func TestDamagedWithPhotoInSameTurn(t *testing.T) {
	m := newTestMachine(t)
	s := m.NewSession("s1")
	r := send(m, s, "it arrived broken", &model.Attachment{Name: "a.png", Locator: "uploads/a.png", MimeType: "image/png"})
	assert.Equal(t, promptPhotoReceived, lastText(r))
	assert.Equal(t, model.ModeAwaitingOrderNumber, s.Mode)
	assert.Equal(t, model.IssueDamagedItem, s.ActiveIssueType)
	assert.Equal(t, "uploads/a.png", s.PendingAttachmentLocator)
}

func TestGreetingShowsMenu(t *testing.T) {
	m := newTestMachine(t)
	s := m.NewSession("s1")
	send(m, s, "asdf", nil)
	require.False(t, s.MenuVisible)

	r := send(m, s, "hello", nil)
	require.Len(t, r.Messages, 1)
	assert.Equal(t, "Hello! I'm Zazu, your AI support assistant. How can I help you today?", r.Messages[0].Text)
	assert.Len(t, r.Messages[0].Suggestions, 4)
	assert.True(t, s.MenuVisible)
	assert.Equal(t, model.ModeIdle, s.Mode)
}

func TestFloralDressProducts(t *testing.T) {
	m := newTestMachine(t)
	s := m.NewSession("s1")
	r := send(m, s, "I want a floral dress", nil)
	require.Len(t, r.Messages, 1)
	assert.Equal(t, "Here are some beautiful floral dresses you might like:", r.Messages[0].Text)
	require.NotEmpty(t, r.Messages[0].Products)
	for _, p := range r.Messages[0].Products {
		assert.True(t, p.Category == "dresses" || strings.Contains(strings.ToLower(p.Name), "floral"), p.Name)
	}
}

func TestGibberishFallsBack(t *testing.T) {
	m := newTestMachine(t)
	s := m.NewSession("s1")

	r := send(m, s, "qwzx plorp", nil)
	assert.Equal(t, "I'm not sure I understand. Could you please provide more details?", lastText(r))
	assert.Equal(t, intent.DefaultSuggestions, r.Messages[0].Suggestions)
	assert.Equal(t, model.ModeIdle, s.Mode)
	assert.Nil(t, r.Ticket)
}

func TestMenuSelection(t *testing.T) {
	tests := []struct {
		text  string
		mode  model.Mode
		issue model.IssueType
	}{
		{"1", model.ModeAwaitingOrderNumber, model.IssueMissingItem},
		{" 2 ", model.ModeAwaitingOrderNumber, model.IssueWrongItem},
		{"3", model.ModeAwaitingImageUpload, model.IssueDamagedItem},
		{"4", model.ModeAwaitingOrderNumber, model.IssueBillingIssue},
	}
	m := newTestMachine(t)
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			s := m.NewSession("s1")
			send(m, s, tt.text, nil)
			assert.Equal(t, tt.mode, s.Mode)
			assert.Equal(t, tt.issue, s.ActiveIssueType)
		})
	}
}

func TestMenuHumanAgent(t *testing.T) {
	m := newTestMachine(t)
	s := m.NewSession("s1")
	r := send(m, s, "5", nil)
	require.NotNil(t, r.Ticket)
	assert.Equal(t, model.IssueOther, r.Ticket.IssueType)
	assert.Equal(t, model.ModeIdle, s.Mode)
	assert.True(t, s.MenuVisible)
	assert.Contains(t, lastText(r), "I'm connecting you with our support team. Your ticket number is "+r.Ticket.TicketNumber)
	assert.Equal(t, humanAgentSuggestions, r.Messages[0].Suggestions)
}

func TestMenuDigitOutsideIdleIsNotASelection(t *testing.T) {
	m := newTestMachine(t)
	s := m.NewSession("s1")
	send(m, s, "1", nil)
	r := send(m, s, "3", nil)
	assert.Equal(t, promptInvalidOrder, lastText(r))
	assert.Equal(t, model.ModeAwaitingOrderNumber, s.Mode)
	assert.Equal(t, model.IssueMissingItem, s.ActiveIssueType)
}

func TestMenuSelectionNeedsBareDigit(t *testing.T) {
	m := newTestMachine(t)
	for _, text := range []string{"+3", "03", "3.", "6", "0"} {
		s := m.NewSession("s1")
		send(m, s, text, nil)
		assert.Equal(t, model.ModeIdle, s.Mode, text)
		assert.Empty(t, s.ActiveIssueType, text)
	}

	s := m.NewSession("s1")
	r := send(m, s, " 3 ", nil)
	assert.Equal(t, promptDamagedItem, lastText(r))
	assert.Equal(t, model.ModeAwaitingImageUpload, s.Mode)
}

func TestStockSuggestionDoesNotEscalate(t *testing.T) {
	m := newTestMachine(t)
	s := m.NewSession("s1")
	r := send(m, s, intent.DefaultSuggestions[3], nil)
	assert.Nil(t, r.Ticket)
	assert.Empty(t, s.OpenTicketNumber)
	assert.Equal(t, "I'm not sure I understand. Could you please provide more details?", lastText(r))
}

func TestComplexIssueCreatesTicket(t *testing.T) {
	m := newTestMachine(t)
	s := m.NewSession("s1")
	r := send(m, s, "I'm really upset with the delivery", nil)
	require.NotNil(t, r.Ticket)
	assert.Equal(t, model.IssueOther, r.Ticket.IssueType)
	// "delivery" steers the free-text match to order issues.
	assert.Equal(t, "agent3", r.Ticket.AssignedAgentID)
	assert.Contains(t, lastText(r), "I understand this is a complex issue. I've created support ticket")
	assert.Equal(t, model.ModeIdle, s.Mode)
}

func TestOrderLookupWhileIdle(t *testing.T) {
	m := newTestMachine(t)
	s := m.NewSession("s1")
	r := send(m, s, "can you check ord654321?", nil)
	assert.Nil(t, r.Ticket)
	assert.Equal(t, "I found your order ORD654321. How can I help you with this order?", lastText(r))
	require.NotNil(t, s.FoundOrder)
	assert.Equal(t, "Denim Jacket", s.FoundOrder.ProductName)

	r = send(m, s, "ORD000001", nil)
	require.NotNil(t, r.Ticket)
	assert.Empty(t, r.Ticket.LinkedOrderNumber)
	assert.Contains(t, lastText(r), "couldn't find order ORD000001")
}

func TestAttachmentWithoutTextWhileIdle(t *testing.T) {
	m := newTestMachine(t)
	s := m.NewSession("s1")
	r := send(m, s, "", &model.Attachment{Name: "invoice.pdf", Locator: "uploads/invoice.pdf", MimeType: "application/pdf"})
	assert.Equal(t, replyFileReceived, lastText(r))
	assert.Equal(t, fileSuggestions, r.Messages[0].Suggestions)
	assert.Equal(t, model.ModeIdle, s.Mode)
	assert.Empty(t, s.PendingAttachmentLocator)
}

func TestExtraImageWhileAwaitingOrder(t *testing.T) {
	m := newTestMachine(t)
	s := m.NewSession("s1")
	send(m, s, "wrong item", nil)
	r := send(m, s, "", &model.Attachment{Name: "b.jpg", Locator: "uploads/b.jpg", MimeType: "image/jpeg"})
	assert.Equal(t, promptExtraImage, lastText(r))
	assert.Equal(t, "uploads/b.jpg", s.PendingAttachmentLocator)

	r = send(m, s, "ORD333444", nil)
	require.NotNil(t, r.Ticket)
	assert.Equal(t, "uploads/b.jpg", r.Ticket.LinkedAttachment)
}

func TestOrderNumberWithIssueWhileAwaiting(t *testing.T) {
	m := newTestMachine(t)
	s := m.NewSession("s1")
	send(m, s, "1", nil)
	r := send(m, s, "ORD555666 and I was charged twice", nil)
	require.NotNil(t, r.Ticket)
	assert.Equal(t, model.IssueBillingIssue, r.Ticket.IssueType)
	assert.Equal(t, "ORD555666", r.Ticket.LinkedOrderNumber)
}

func TestHumanRequestWhileIdle(t *testing.T) {
	m := newTestMachine(t)
	s := m.NewSession("s1")
	r := send(m, s, "Can I speak to a human?", nil)
	require.NotNil(t, r.Ticket)
	assert.True(t, s.MenuVisible)
	assert.Contains(t, lastText(r), "I'm connecting you with our support team.")
}

func TestTranscriptGrowsByTurn(t *testing.T) {
	m := newTestMachine(t)
	s := m.NewSession("s1")
	send(m, s, "hello", nil)
	send(m, s, "thanks", nil)
	require.Len(t, s.Transcript, 5)
	assert.Equal(t, model.SideUser, s.Transcript[1].Side)
	assert.Equal(t, "hello", s.Transcript[1].Text)
	assert.Equal(t, model.SideSystem, s.Transcript[2].Side)
	assert.Equal(t, "You're welcome! Is there anything else I can help you with?", s.Transcript[4].Text)
}

func TestOrderNumberWithAttachmentLinksBoth(t *testing.T) {
	m := newTestMachine(t)
	s := m.NewSession("s1")
	send(m, s, "I got the wrong item", nil)
	require.Equal(t, model.ModeAwaitingOrderNumber, s.Mode)

	r := send(m, s, "ORD123456", &model.Attachment{Name: "x.jpg", Locator: "uploads/x.jpg"})
	require.NotNil(t, r.Ticket)
	assert.Equal(t, "ORD123456", r.Ticket.LinkedOrderNumber)
	assert.Equal(t, "uploads/x.jpg", r.Ticket.LinkedAttachment)
	assert.Contains(t, lastText(r), "The image you provided has been attached to the ticket.")
	assert.Empty(t, s.PendingAttachmentLocator)
	assert.Equal(t, model.ModeIdle, s.Mode)
}

func TestComplexIssueWithAttachmentLinksIt(t *testing.T) {
	m := newTestMachine(t)
	s := m.NewSession("s1")
	r := send(m, s, "I'm really upset, see the screenshot", &model.Attachment{Name: "s.png", Locator: "uploads/s.png"})
	require.NotNil(t, r.Ticket)
	assert.Equal(t, model.IssueOther, r.Ticket.IssueType)
	assert.Equal(t, "uploads/s.png", r.Ticket.LinkedAttachment)
	assert.Contains(t, lastText(r), "The image you provided has been attached to the ticket.")
}

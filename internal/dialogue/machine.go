// Package dialogue drives a support conversation: it consumes user turns,
// consults the intent classifier, the order directory and the assignment
// engine, and appends the system's replies to the session transcript.
package dialogue

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/psds-microservice/support-chat/internal/assignment"
	"github.com/psds-microservice/support-chat/internal/directory"
	"github.com/psds-microservice/support-chat/internal/intent"
	"github.com/psds-microservice/support-chat/internal/model"
)

const timestampLayout = "15:04"

// Turn is one user input. At least one of Text and Attachment is set.
type Turn struct {
	Text       string
	Attachment *model.Attachment
}

// Empty reports whether the turn carries nothing to process.
func (t Turn) Empty() bool {
	return strings.TrimSpace(t.Text) == "" && t.Attachment == nil
}

// Reply is what one turn produced.
type Reply struct {
	Messages []model.Message
	// Ticket is set when the turn created a ticket.
	Ticket     *model.Ticket
	Assignment *assignment.Assignment
	Session    *model.Session
}

type OrderLookup interface {
	LookupOrder(orderNumber string) (model.Order, error)
}

type Machine struct {
	classifier *intent.Classifier
	orders     OrderLookup
	tickets    *assignment.Engine
	assistant  string
	now        func() time.Time
}

func NewMachine(classifier *intent.Classifier, orders OrderLookup, tickets *assignment.Engine, assistant string) *Machine {
	return &Machine{
		classifier: classifier,
		orders:     orders,
		tickets:    tickets,
		assistant:  assistant,
		now:        time.Now,
	}
}

// WithClock overrides the message clock.
func (m *Machine) WithClock(now func() time.Time) *Machine {
	m.now = now
	return m
}

// NewSession returns a fresh session holding only the welcome message.
func (m *Machine) NewSession(id string) *model.Session {
	welcome := strings.ReplaceAll(welcomeTemplate, "{assistant}", m.assistant)
	return &model.Session{
		ID:          id,
		Transcript:  []model.Message{m.systemMessage(welcome, intent.DefaultSuggestions, nil)},
		Mode:        model.ModeIdle,
		MenuVisible: true,
	}
}

func (m *Machine) UserMessage(turn Turn) model.Message {
	at := m.now().UTC()
	msg := model.Message{
		Text:      turn.Text,
		Side:      model.SideUser,
		Timestamp: at.Format(timestampLayout),
		CreatedAt: at,
	}
	if turn.Attachment != nil {
		a := *turn.Attachment
		msg.Attachment = &a
	}
	return msg
}

func (m *Machine) systemMessage(text string, suggestions []string, products []model.Product) model.Message {
	at := m.now().UTC()
	return model.Message{
		Text:        text,
		Side:        model.SideSystem,
		Timestamp:   at.Format(timestampLayout),
		CreatedAt:   at,
		Suggestions: append([]string(nil), suggestions...),
		Products:    append([]model.Product(nil), products...),
	}
}

// turnState carries one Respond call.
type turnState struct {
	m     *Machine
	ctx   context.Context
	s     *model.Session
	turn  Turn
	text  string
	reply Reply
}

func (ts *turnState) say(text string, suggestions []string, products []model.Product) {
	msg := ts.m.systemMessage(text, suggestions, products)
	ts.s.Append(msg)
	ts.reply.Messages = append(ts.reply.Messages, msg)
}

// escalate creates a ticket, binds it to the session and consumes the pending
// attachment, or the one sent with this turn. The session returns to Idle.
func (ts *turnState) escalate(issue model.IssueType, orderNumber string) assignment.Outcome {
	if ts.turn.Attachment != nil {
		ts.s.PendingAttachmentLocator = ts.turn.Attachment.Locator
	}
	out := ts.m.tickets.CreateTicket(ts.ctx, assignment.Request{
		Issue:       issue,
		Text:        ts.text,
		OrderNumber: orderNumber,
		Attachment:  ts.s.PendingAttachmentLocator,
	})
	agent := out.Assignment.Agent
	ts.s.OpenTicketNumber = out.Ticket.TicketNumber
	ts.s.AssignedAgent = &agent
	ts.s.Tickets = append(ts.s.Tickets, out.Ticket)
	ts.s.PendingAttachmentLocator = ""
	ts.s.ActiveIssueType = model.IssueNone
	ts.s.Mode = model.ModeIdle
	t, asg := out.Ticket, out.Assignment
	ts.reply.Ticket = &t
	ts.reply.Assignment = &asg
	return out
}

// Respond advances the session by one user turn whose message is already in
// the transcript, appending the system replies.
func (m *Machine) Respond(ctx context.Context, s *model.Session, turn Turn) Reply {
	ts := &turnState{m: m, ctx: ctx, s: s, turn: turn, text: strings.TrimSpace(turn.Text)}
	s.MenuVisible = false
	from := s.Mode
	ts.respond()
	slog.Debug("dialogue: turn handled", "session", s.ID, "from", from, "to", s.Mode, "replies", len(ts.reply.Messages))
	return ts.reply
}

func (ts *turnState) respond() {
	s := ts.s

	if s.Mode == model.ModeIdle {
		if opt, ok := menuSelection(ts.text); ok {
			ts.selectOption(opt)
			return
		}
	}

	// A pending request answered in this turn takes precedence over issue
	// detection, so "ORD123456, charged twice" resolves instead of re-asking.
	if s.Mode == model.ModeAwaitingOrderNumber {
		if num, ok := directory.ExtractOrderNumber(ts.text); ok {
			if issue := ts.m.classifier.DetectIssue(ts.text); issue.NeedsTicket() && issue != model.IssueOther {
				s.ActiveIssueType = issue
			}
			ts.resolveOrder(num)
			return
		}
	}
	if s.Mode == model.ModeAwaitingImageUpload && ts.turn.Attachment != nil {
		ts.acceptPhoto()
		return
	}

	if ts.text != "" {
		switch issue := ts.m.classifier.DetectIssue(ts.text); issue {
		case model.IssueMissingItem, model.IssueWrongItem, model.IssueBillingIssue:
			ts.askFor(issue)
			return
		case model.IssueDamagedItem:
			if ts.turn.Attachment != nil {
				s.ActiveIssueType = issue
				ts.acceptPhoto()
				return
			}
			ts.askFor(issue)
			return
		case model.IssueOther:
			out := ts.escalate(issue, "")
			ts.say(complexIssuePrefix+out.Message, nil, nil)
			return
		}
	}

	switch s.Mode {
	case model.ModeAwaitingOrderNumber:
		if ts.turn.Attachment != nil {
			s.PendingAttachmentLocator = ts.turn.Attachment.Locator
			ts.say(promptExtraImage, nil, nil)
			return
		}
		ts.say(promptInvalidOrder, nil, nil)
		return
	case model.ModeAwaitingImageUpload:
		ts.say(promptPhotoAgain, nil, nil)
		return
	}

	ts.respondIdle()
}

func (ts *turnState) askFor(issue model.IssueType) {
	prompt, mode := issuePrompt(issue)
	ts.s.ActiveIssueType = issue
	ts.s.Mode = mode
	ts.say(prompt, nil, nil)
}

func (ts *turnState) acceptPhoto() {
	ts.s.PendingAttachmentLocator = ts.turn.Attachment.Locator
	ts.s.Mode = model.ModeAwaitingOrderNumber
	ts.say(promptPhotoReceived, nil, nil)
}

func (ts *turnState) selectOption(opt MenuOption) {
	if opt.ID == humanAgentOption {
		ts.connectHuman()
		return
	}
	ts.askFor(opt.Issue)
}

func (ts *turnState) connectHuman() {
	out := ts.escalate(model.IssueOther, "")
	msg := humanAgentPrefix + "Your ticket number is " + out.Ticket.TicketNumber + ". " +
		assignment.AgentSentence(out.Assignment, "contact you shortly")
	ts.say(msg, humanAgentSuggestions, nil)
	ts.s.MenuVisible = true
}

// resolveOrder answers a pending order-number request. A ticket is created
// whether or not the order exists.
func (ts *turnState) resolveOrder(orderNumber string) {
	issue := ts.s.ActiveIssueType
	order, err := ts.m.orders.LookupOrder(orderNumber)
	if err != nil {
		slog.Info("dialogue: order not found", "session", ts.s.ID, "order", orderNumber)
		out := ts.escalate(issue, "")
		ts.say(fmt.Sprintf("Sorry, we couldn't find order %s. I've still created support ticket %s for your issue. %s",
			orderNumber, out.Ticket.TicketNumber, assignment.AgentSentence(out.Assignment, "assist you")), nil, nil)
		return
	}
	ts.s.FoundOrder = &order
	out := ts.escalate(issue, order.OrderNumber)
	ts.say(fmt.Sprintf("Order %s found! %s", order.OrderNumber, out.Message), nil, nil)
}

func (ts *turnState) respondIdle() {
	s := ts.s

	if ts.text == "" {
		// Attachment without text or a pending photo request.
		ts.say(replyFileReceived, fileSuggestions, nil)
		return
	}

	if num, ok := directory.ExtractOrderNumber(ts.text); ok {
		ts.lookupOrder(num)
		return
	}

	if ts.m.classifier.WantsHuman(ts.text) {
		ts.connectHuman()
		return
	}

	res := ts.m.classifier.Answer(ts.text)
	ts.say(res.Response, res.Suggestions, res.Products)
	if res.IsGreeting() {
		s.MenuVisible = true
	}
}

// lookupOrder handles an order number mentioned while Idle. Known orders are
// shown; unknown ones are escalated unless a ticket is already open.
func (ts *turnState) lookupOrder(orderNumber string) {
	s := ts.s
	order, err := ts.m.orders.LookupOrder(orderNumber)
	if err == nil {
		s.FoundOrder = &order
		ts.say(fmt.Sprintf("I found your order %s. How can I help you with this order?", order.OrderNumber),
			orderFoundSuggestions, nil)
		return
	}
	if s.OpenTicketNumber != "" && s.AssignedAgent != nil {
		asg := assignment.Assignment{Agent: *s.AssignedAgent, Available: s.AssignedAgent.Available}
		ts.say(fmt.Sprintf("Sorry, we couldn't find order %s. Your ticket %s is still open. %s",
			orderNumber, s.OpenTicketNumber, assignment.AgentSentence(asg, "assist you")), nil, nil)
		return
	}
	out := ts.escalate(model.IssueOther, "")
	ts.say(fmt.Sprintf("Sorry, we couldn't find order %s. I've created support ticket %s for you. %s",
		orderNumber, out.Ticket.TicketNumber, assignment.AgentSentence(out.Assignment, "assist you")), nil, nil)
}

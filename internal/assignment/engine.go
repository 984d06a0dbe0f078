// Package assignment allocates ticket numbers and binds tickets to agents.
package assignment

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/psds-microservice/support-chat/internal/errs"
	"github.com/psds-microservice/support-chat/internal/model"
	"github.com/psds-microservice/support-chat/internal/textmatch"
)

// AgentRoster is the read-only view of the agent directory.
type AgentRoster interface {
	Agents() []model.Agent
}

// Assignment is the agent bound to a ticket. Available is false when the
// roster had no available agent; Agent is then the first roster entry, so a
// ticket always carries an agent reference.
type Assignment struct {
	Agent     model.Agent
	Available bool
}

// Request describes an escalation. Text is the utterance that triggered it
// and steers agent choice when the issue type has no preferred specialty.
type Request struct {
	Issue       model.IssueType
	Text        string
	OrderNumber string
	Attachment  string
}

type Outcome struct {
	Ticket     model.Ticket
	Assignment Assignment
	Message    string
}

type Engine struct {
	roster  AgentRoster
	numbers *Numbers
	now     func() time.Time
}

func NewEngine(roster AgentRoster, numbers *Numbers) *Engine {
	return &Engine{roster: roster, numbers: numbers, now: time.Now}
}

// WithClock overrides the ticket creation clock.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

var specialtyByText = []struct {
	specialty model.Specialty
	matcher   textmatch.Matcher
}{
	{model.SpecialtyBilling, textmatch.New("payment", "payments", "bill", "billing", "billed", "charge", "charged")},
	{model.SpecialtyOrderIssues, textmatch.New("order", "orders", "delivery", "ship", "shipping", "shipped")},
	{model.SpecialtyReturns, textmatch.New("return", "returns", "refund", "refunds", "exchange")},
	{model.SpecialtyTechnical, textmatch.New("technical", "not working", "broken")},
}

// preferredSpecialty maps structured issue types first and falls back to
// scanning the utterance. An empty result means no preference.
func preferredSpecialty(issue model.IssueType, text string) model.Specialty {
	switch issue {
	case model.IssueDamagedItem, model.IssueWrongItem, model.IssueMissingItem:
		return model.SpecialtyReturns
	case model.IssueBillingIssue:
		return model.SpecialtyBilling
	}
	n := textmatch.Normalize(text)
	for _, rule := range specialtyByText {
		if rule.matcher.Match(n) {
			return rule.specialty
		}
	}
	return ""
}

// Assign picks an agent: an available agent of the preferred specialty, else
// the first available agent, else the first roster entry marked unavailable.
func (e *Engine) Assign(issue model.IssueType, text string) Assignment {
	agents := e.roster.Agents()
	want := preferredSpecialty(issue, text)
	var firstAvailable *model.Agent
	for i := range agents {
		a := &agents[i]
		if !a.Available {
			continue
		}
		if want != "" && a.Specialty == want {
			return Assignment{Agent: *a, Available: true}
		}
		if firstAvailable == nil {
			firstAvailable = a
		}
	}
	if firstAvailable != nil {
		return Assignment{Agent: *firstAvailable, Available: true}
	}
	slog.Warn("assignment: falling back to an unavailable agent", "issue", issue, "error", errs.ErrNoAgentAvailable)
	if len(agents) == 0 {
		return Assignment{}
	}
	return Assignment{Agent: agents[0]}
}

// CreateTicket allocates a ticket number, assigns an agent and composes the
// confirmation message.
func (e *Engine) CreateTicket(ctx context.Context, req Request) Outcome {
	issue := req.Issue
	if !issue.NeedsTicket() {
		issue = model.IssueOther
	}
	asg := e.Assign(issue, req.Text)
	t := model.Ticket{
		TicketNumber:      e.numbers.Next(ctx),
		IssueType:         issue,
		LinkedOrderNumber: req.OrderNumber,
		LinkedAttachment:  req.Attachment,
		AssignedAgentID:   asg.Agent.ID,
		CreatedAt:         e.now().UTC(),
	}
	slog.Info("assignment: ticket created",
		"ticket", t.TicketNumber, "issue", t.IssueType, "agent", t.AssignedAgentID, "agent_available", asg.Available)
	return Outcome{Ticket: t, Assignment: asg, Message: ConfirmationMessage(t, asg)}
}

func ConfirmationMessage(t model.Ticket, asg Assignment) string {
	var b strings.Builder
	b.WriteString("I've created support ticket " + t.TicketNumber + " for you. ")
	if t.LinkedOrderNumber != "" {
		b.WriteString("Your order " + t.LinkedOrderNumber + " has been linked to this ticket. ")
	}
	if t.LinkedAttachment != "" {
		b.WriteString("The image you provided has been attached to the ticket. ")
	}
	b.WriteString(AgentSentence(asg, "contact you shortly"))
	return b.String()
}

// AgentSentence names the assigned agent, or the next available agent when
// nobody is available.
func AgentSentence(asg Assignment, action string) string {
	if asg.Available {
		return asg.Agent.Name + " has been assigned to your case and will " + action + "."
	}
	return "Our next available agent will " + action + "."
}

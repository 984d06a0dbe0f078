package model

import "time"

type Side string

const (
	SideUser   Side = "user"
	SideSystem Side = "system"
)

// Mode is the dialogue state of a session. Exactly one holds at any time.
type Mode string

const (
	ModeIdle                Mode = "idle"
	ModeAwaitingOrderNumber Mode = "awaiting_order_number"
	ModeAwaitingImageUpload Mode = "awaiting_image_upload"
)

type IssueType string

const (
	IssueNone         IssueType = ""
	IssueDamagedItem  IssueType = "damaged_item"
	IssueWrongItem    IssueType = "wrong_item"
	IssueMissingItem  IssueType = "missing_item"
	IssueBillingIssue IssueType = "billing_issue"
	IssueOther        IssueType = "other"
)

// NeedsTicket reports whether the issue type is escalated to an agent.
func (t IssueType) NeedsTicket() bool {
	return t != IssueNone
}

type Specialty string

const (
	SpecialtyBilling     Specialty = "billing"
	SpecialtyTechnical   Specialty = "technical"
	SpecialtyOrderIssues Specialty = "order_issues"
	SpecialtyReturns     Specialty = "returns"
	SpecialtyGeneral     Specialty = "general"
)

func (s Specialty) Valid() bool {
	switch s {
	case SpecialtyBilling, SpecialtyTechnical, SpecialtyOrderIssues, SpecialtyReturns, SpecialtyGeneral:
		return true
	}
	return false
}

type Attachment struct {
	Name     string `json:"name" yaml:"name"`
	Locator  string `json:"locator" yaml:"locator"`
	MimeType string `json:"mime_type" yaml:"mime_type"`
}

type Product struct {
	ID       string  `json:"id" yaml:"id"`
	Name     string  `json:"name" yaml:"name"`
	Price    float64 `json:"price" yaml:"price"`
	Image    string  `json:"image" yaml:"image"`
	Category string  `json:"category" yaml:"category"`
}

// Message is one transcript entry. Messages are never edited once appended.
type Message struct {
	Text        string      `json:"text"`
	Side        Side        `json:"side"`
	Timestamp   string      `json:"timestamp"`
	CreatedAt   time.Time   `json:"created_at"`
	Attachment  *Attachment `json:"attachment,omitempty"`
	Suggestions []string    `json:"suggestions,omitempty"`
	Products    []Product   `json:"products,omitempty"`
}

type Order struct {
	OrderNumber     string `json:"order_number" yaml:"order_number"`
	ProductName     string `json:"product_name" yaml:"product_name"`
	Status          string `json:"status" yaml:"status"`
	DeliveryDate    string `json:"delivery_date" yaml:"delivery_date"`
	ShippingAddress string `json:"shipping_address" yaml:"shipping_address"`
}

type Agent struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Specialty Specialty `json:"specialty" yaml:"specialty"`
	Available bool      `json:"available" yaml:"available"`
}

type Ticket struct {
	TicketNumber      string    `json:"ticket_number"`
	IssueType         IssueType `json:"issue_type"`
	LinkedOrderNumber string    `json:"linked_order_number,omitempty"`
	LinkedAttachment  string    `json:"linked_attachment,omitempty"`
	AssignedAgentID   string    `json:"assigned_agent_id"`
	CreatedAt         time.Time `json:"created_at"`
}

// Session is the full mutable state of one conversation. OpenTicketNumber and
// AssignedAgent are set together or both empty.
type Session struct {
	ID                       string    `json:"id"`
	Transcript               []Message `json:"transcript"`
	Mode                     Mode      `json:"mode"`
	ActiveIssueType          IssueType `json:"active_issue_type,omitempty"`
	OpenTicketNumber         string    `json:"open_ticket_number,omitempty"`
	AssignedAgent            *Agent    `json:"assigned_agent,omitempty"`
	PendingAttachmentLocator string    `json:"pending_attachment_locator,omitempty"`
	FoundOrder               *Order    `json:"found_order,omitempty"`
	MenuVisible              bool      `json:"menu_visible"`
	Tickets                  []Ticket  `json:"tickets,omitempty"`
}

// Append adds messages to the end of the transcript.
func (s *Session) Append(msgs ...Message) {
	s.Transcript = append(s.Transcript, msgs...)
}

// Clone returns a deep copy safe to hand out of the conversation lock.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Transcript = make([]Message, len(s.Transcript))
	for i, m := range s.Transcript {
		out.Transcript[i] = m.clone()
	}
	if s.AssignedAgent != nil {
		a := *s.AssignedAgent
		out.AssignedAgent = &a
	}
	if s.FoundOrder != nil {
		o := *s.FoundOrder
		out.FoundOrder = &o
	}
	if s.Tickets != nil {
		out.Tickets = append([]Ticket(nil), s.Tickets...)
	}
	return &out
}

func (m Message) clone() Message {
	if m.Attachment != nil {
		a := *m.Attachment
		m.Attachment = &a
	}
	if m.Suggestions != nil {
		m.Suggestions = append([]string(nil), m.Suggestions...)
	}
	if m.Products != nil {
		m.Products = append([]Product(nil), m.Products...)
	}
	return m
}

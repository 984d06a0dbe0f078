// Package chatui renders a support conversation for a terminal.
package chatui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/psds-microservice/support-chat/internal/dialogue"
	"github.com/psds-microservice/support-chat/internal/model"
)

type Theme struct {
	UserColor        lipgloss.Color
	SystemColor      lipgloss.Color
	FaintText        lipgloss.Color
	AccentColor      lipgloss.Color
	BorderColor      lipgloss.Color
	HeaderForeground lipgloss.Color
}

var DefaultTheme = Theme{
	UserColor:        "39",
	SystemColor:      "252",
	FaintText:        "243",
	AccentColor:      "214",
	BorderColor:      "238",
	HeaderForeground: "255",
}

type Renderer struct {
	theme     Theme
	width     int
	assistant string
}

func NewRenderer(theme Theme, width int, assistant string) *Renderer {
	if width <= 0 {
		width = 80
	}
	return &Renderer{theme: theme, width: width, assistant: assistant}
}

// Message renders one transcript entry with its suggestions and products.
func (r *Renderer) Message(m model.Message) string {
	nameStyle := lipgloss.NewStyle().Bold(true)
	bodyStyle := lipgloss.NewStyle().Width(r.width - 4).PaddingLeft(2)
	faint := lipgloss.NewStyle().Foreground(r.theme.FaintText)

	var name string
	if m.Side == model.SideUser {
		name = nameStyle.Foreground(r.theme.UserColor).Render("You")
		bodyStyle = bodyStyle.Foreground(r.theme.UserColor)
	} else {
		name = nameStyle.Foreground(r.theme.AccentColor).Render(r.assistant)
		bodyStyle = bodyStyle.Foreground(r.theme.SystemColor)
	}

	var b strings.Builder
	b.WriteString(name + " " + faint.Render(m.Timestamp) + "\n")
	if m.Text != "" {
		b.WriteString(bodyStyle.Render(m.Text) + "\n")
	}
	if m.Attachment != nil {
		b.WriteString(bodyStyle.Render(faint.Render("[attached "+m.Attachment.Name+"]")) + "\n")
	}
	for _, p := range m.Products {
		line := fmt.Sprintf("#%s %s  $%.2f  (%s)", p.ID, p.Name, p.Price, p.Category)
		b.WriteString(bodyStyle.Render(line) + "\n")
	}
	if len(m.Suggestions) > 0 {
		chips := make([]string, len(m.Suggestions))
		for i, s := range m.Suggestions {
			chips[i] = lipgloss.NewStyle().
				Foreground(r.theme.FaintText).
				Border(lipgloss.NormalBorder(), false, true).
				BorderForeground(r.theme.BorderColor).
				Render(s)
		}
		b.WriteString(bodyStyle.Render(strings.Join(chips, " ")) + "\n")
	}
	return b.String()
}

// Menu renders the numeric support options.
func (r *Renderer) Menu(options []dialogue.MenuOption) string {
	header := lipgloss.NewStyle().Bold(true).Foreground(r.theme.HeaderForeground).Render("Quick support options")
	rows := []string{header}
	for _, o := range options {
		id := lipgloss.NewStyle().Foreground(r.theme.AccentColor).Render(fmt.Sprintf("%d.", o.ID))
		desc := lipgloss.NewStyle().Foreground(r.theme.FaintText).Render(o.Description)
		rows = append(rows, fmt.Sprintf("%s %s  %s", id, o.Label, desc))
	}
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(r.theme.BorderColor).
		Padding(0, 1)
	return box.Render(strings.Join(rows, "\n")) + "\n"
}

// Tickets renders the session's ticket history.
func (r *Renderer) Tickets(tickets []model.Ticket) string {
	faint := lipgloss.NewStyle().Foreground(r.theme.FaintText)
	if len(tickets) == 0 {
		return faint.Render("No tickets in this session.") + "\n"
	}
	idStyle := lipgloss.NewStyle().Bold(true).Foreground(r.theme.AccentColor)
	var b strings.Builder
	for _, t := range tickets {
		line := idStyle.Render(t.TicketNumber) + " " + string(t.IssueType) + " agent=" + t.AssignedAgentID
		if t.LinkedOrderNumber != "" {
			line += " order=" + t.LinkedOrderNumber
		}
		if t.LinkedAttachment != "" {
			line += " attachment=" + t.LinkedAttachment
		}
		b.WriteString(line + " " + faint.Render(t.CreatedAt.Format("2006-01-02 15:04")) + "\n")
	}
	return b.String()
}

// Separator is a full-width rule.
func (r *Renderer) Separator() string {
	return lipgloss.NewStyle().Foreground(r.theme.BorderColor).Render(strings.Repeat("─", r.width)) + "\n"
}

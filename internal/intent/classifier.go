// Package intent classifies free-text support utterances into ticket-worthy
// issue types or canned knowledge-base answers.
//
// All tables are ordered lists evaluated top to bottom, so the first matching
// rule always wins. Keywords match as whole words or phrases.
package intent

import (
	"log/slog"
	"strings"

	"github.com/psds-microservice/support-chat/internal/model"
	"github.com/psds-microservice/support-chat/internal/textmatch"
)

// Result is the outcome of a classification. Issue is IssueNone when the text
// is answerable without a ticket, in which case the entry fields are set.
type Result struct {
	Issue       model.IssueType
	EntryID     string
	Response    string
	Suggestions []string
	Products    []model.Product
}

// IsGreeting reports whether the result is the greeting entry.
func (r Result) IsGreeting() bool {
	return r.EntryID == EntryGreeting
}

type entry struct {
	id          string
	matcher     textmatch.Matcher
	response    string
	suggestions []string
	products    []model.Product
}

type Classifier struct {
	entries []entry
}

// New builds a classifier whose product recommendations are drawn from
// catalog. assistant names the bot in the greeting.
func New(catalog []model.Product, assistant string) *Classifier {
	c := &Classifier{entries: make([]entry, 0, len(knowledgeBase))}
	for _, spec := range knowledgeBase {
		e := entry{
			id:          spec.id,
			matcher:     textmatch.New(spec.keywords...),
			response:    strings.ReplaceAll(spec.response, "{assistant}", assistant),
			suggestions: spec.suggestions,
		}
		if spec.products != nil {
			e.products = spec.products(catalog)
		}
		c.entries = append(c.entries, e)
	}
	return c
}

// Classify runs issue detection and falls through to the knowledge base. It
// always returns a result.
func (c *Classifier) Classify(text string) Result {
	if issue := c.DetectIssue(text); issue.NeedsTicket() {
		return Result{Issue: issue}
	}
	return c.Answer(text)
}

// DetectIssue returns the first specific issue type whose keywords occur in
// text, IssueOther when only the broad complaint list matches, or IssueNone.
func (c *Classifier) DetectIssue(text string) model.IssueType {
	n := textmatch.Normalize(text)
	for _, rule := range issueRules {
		if rule.matcher.Match(n) {
			slog.Debug("intent: issue detected", "issue", rule.issue)
			return rule.issue
		}
	}
	if complexIssueMatcher.Match(n) {
		slog.Debug("intent: complex issue detected")
		return model.IssueOther
	}
	return model.IssueNone
}

// WantsHuman reports whether the user explicitly asks for a person.
func (c *Classifier) WantsHuman(text string) bool {
	return humanRequestMatcher.Contains(text)
}

// Answer matches text against the knowledge base, falling back to a generic
// clarification.
func (c *Classifier) Answer(text string) Result {
	n := textmatch.Normalize(text)
	for _, e := range c.entries {
		if e.matcher.Match(n) {
			return Result{
				EntryID:     e.id,
				Response:    e.response,
				Suggestions: append([]string(nil), e.suggestions...),
				Products:    append([]model.Product(nil), e.products...),
			}
		}
	}
	return Result{
		EntryID:     EntryFallback,
		Response:    fallbackResponse,
		Suggestions: append([]string(nil), DefaultSuggestions...),
	}
}

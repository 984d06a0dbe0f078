package dialogue

import (
	"regexp"
	"strings"

	"github.com/psds-microservice/support-chat/internal/model"
)

const (
	promptMissingItem = "I'm sorry your order hasn't arrived yet. Please provide your order number (like ORD123456) so I can track it for you and create a support ticket."
	promptWrongItem   = "Oh no! You received the wrong item. Please provide your order number (like ORD123456) so I can create a support ticket for you."
	promptDamagedItem = "I'm sorry to hear you received a damaged product. Please upload a photo of the damage so we can better assist you."
	promptBilling     = "Let's resolve your payment issue. Please provide your order number and transaction details."

	promptInvalidOrder  = "That doesn't look like a valid order number. Please provide your order number in the format ORD123456."
	promptPhotoAgain    = "I understand you're reporting a damaged product. Please upload an image of the damage so we can better assist you."
	promptPhotoReceived = "Thank you for providing the image. I'm sorry to see the product arrived damaged. Please provide your order number so I can create a support ticket for you."
	promptExtraImage    = "Thanks, I've added the image. Please provide your order number (like ORD123456) so I can create a support ticket for you."
	replyFileReceived   = "Thank you for sharing the file. How can I help you with this?"

	complexIssuePrefix = "I understand this is a complex issue. "
	humanAgentPrefix   = "I'm connecting you with our support team. "

	welcomeTemplate = "Welcome! I'm {assistant}, your AI support assistant. How can I help you today?"
)

var (
	orderFoundSuggestions = []string{"Track this order", "Return this item", "Problem with this order", "Change delivery address"}
	humanAgentSuggestions = []string{"Check ticket status", "Add more details to ticket", "Contact agent directly", "Browse help articles"}
	fileSuggestions       = []string{"Analyze this document", "Share with support agent", "Save to my account", "Related help articles"}
)

// issuePrompt is the clarification asked for a structured issue type.
func issuePrompt(issue model.IssueType) (string, model.Mode) {
	switch issue {
	case model.IssueMissingItem:
		return promptMissingItem, model.ModeAwaitingOrderNumber
	case model.IssueWrongItem:
		return promptWrongItem, model.ModeAwaitingOrderNumber
	case model.IssueBillingIssue:
		return promptBilling, model.ModeAwaitingOrderNumber
	case model.IssueDamagedItem:
		return promptDamagedItem, model.ModeAwaitingImageUpload
	}
	return "", model.ModeIdle
}

// MenuOption is one entry of the numeric support menu.
type MenuOption struct {
	ID          int             `json:"id"`
	Label       string          `json:"label"`
	Description string          `json:"description"`
	Issue       model.IssueType `json:"issue_type"`
}

const humanAgentOption = 5

// Menu lists the five fixed support options. Selecting one is equivalent to
// sending its number as text.
var Menu = []MenuOption{
	{1, "Order Not Received", "You placed an order but haven't received it yet", model.IssueMissingItem},
	{2, "Received Wrong Item", "You got a different product than what you ordered", model.IssueWrongItem},
	{3, "Damaged / Defective Item", "Item arrived broken or not working", model.IssueDamagedItem},
	{4, "Payment Failed / Charged Twice", "Issues with payment or refund", model.IssueBillingIssue},
	{humanAgentOption, "Talk to Human Agent", "Connect with a support agent for complex issues", model.IssueOther},
}

var menuSelectionRe = regexp.MustCompile(`^[1-5]$`)

// menuSelection accepts a bare digit 1-5 and nothing else: no sign, no
// leading zero.
func menuSelection(text string) (MenuOption, bool) {
	text = strings.TrimSpace(text)
	if !menuSelectionRe.MatchString(text) {
		return MenuOption{}, false
	}
	return Menu[text[0]-'1'], true
}

package intent

import (
	"sort"
	"strings"

	"github.com/psds-microservice/support-chat/internal/model"
	"github.com/psds-microservice/support-chat/internal/textmatch"
)

// Entry identifiers of the knowledge base.
const (
	EntryGreeting    = "greetings"
	EntryThanks      = "thanks"
	EntryOrderStatus = "order_status"
	EntryHours       = "hours"
	EntryLocation    = "location"
	EntryWebsite     = "website"
	EntryAccount     = "account"
	EntryReturns     = "return_policy"
	EntryShipping    = "shipping"
	EntryProductInfo = "product_info"
	EntryFloral      = "floral_dresses"
	EntryMensBoots   = "mens_boots"
	EntryCheapest    = "cheapest_products"
	EntryMens        = "mens_products"
	EntryWomens      = "womens_products"
	EntryPictures    = "picture_recommendations"
	EntryFallback    = "fallback"
)

const fallbackResponse = "I'm not sure I understand. Could you please provide more details?"

// DefaultSuggestions are offered with the welcome message, the greeting and
// the clarification fallback.
var DefaultSuggestions = []string{
	"How do I reset my password?",
	"Where is my order?",
	"Can I get a refund?",
	"How to contact customer support?",
}

type issueRule struct {
	issue   model.IssueType
	matcher textmatch.Matcher
}

// issueRules are evaluated top to bottom; the first hit wins.
var issueRules = []issueRule{
	{model.IssueDamagedItem, textmatch.New(
		"damaged", "broken", "defective", "not working", "scratched")},
	{model.IssueWrongItem, textmatch.New(
		"wrong item", "incorrect", "different product", "not what i ordered",
		"wrong", "mismatch", "mismatched", "wrong order")},
	{model.IssueMissingItem, textmatch.New(
		"missing", "didn't receive", "never arrived", "not delivered", "not received", "hasn't arrived")},
	{model.IssueBillingIssue, textmatch.New(
		"payment", "charge", "charged", "billing", "overcharged", "double charge", "charged twice")},
}

var humanRequestMatcher = textmatch.New(
	"speak to a human", "talk to a human", "talk to human", "human agent", "real person",
	"speak to an agent", "talk to an agent", "live agent",
)

var complexIssueMatcher = textmatch.New(
	"broken", "not working", "defective", "faulty", "damaged", "issue", "issues",
	"problem", "problems", "complaint", "not satisfied", "angry", "upset", "disappointed",
	"wrong item", "missing", "didn't receive", "never arrived", "payment issue",
	"overcharged", "double charge", "billing problem", "refund", "refunds", "return",
	"returns", "exchange", "legal", "sue", "lawyer", "attorney",
)

type entrySpec struct {
	id          string
	keywords    []string
	response    string
	suggestions []string
	products    func(catalog []model.Product) []model.Product
}

var knowledgeBase = []entrySpec{
	{
		id:          EntryGreeting,
		keywords:    []string{"hello", "hi", "hey", "greetings", "good morning", "good afternoon", "good evening"},
		response:    "Hello! I'm {assistant}, your AI support assistant. How can I help you today?",
		suggestions: DefaultSuggestions,
	},
	{
		id:          EntryThanks,
		keywords:    []string{"thank", "thanks", "thank you", "appreciate", "grateful"},
		response:    "You're welcome! Is there anything else I can help you with?",
		suggestions: []string{"Track my order", "Return an item", "Change my account details", "Speak to a human"},
	},
	{
		id:          EntryOrderStatus,
		keywords:    []string{"where is my order", "track my order", "track order", "order status", "track package", "track this order"},
		response:    "I can look that up for you. Please share your order number (like ORD123456).",
		suggestions: []string{"I don't have my order number", "Shipping options", "Delivery timeframe", "Speak to a human"},
	},
	{
		id:          EntryHours,
		keywords:    []string{"hour", "hours", "time", "open", "opening", "close", "closing", "when do you"},
		response:    "Our support is available 24/7. Our physical stores are open from 9 AM to 9 PM, Monday to Saturday.",
		suggestions: []string{"Check store hours", "Holiday hours", "Contact store for hours", "Store opening times"},
	},
	{
		id:          EntryLocation,
		keywords:    []string{"where", "location", "locations", "address", "find you", "store", "stores"},
		response:    "We have locations in major cities nationwide. You can find our nearest store at https://www.example.com/store-locator",
		suggestions: []string{"Directions to store", "Store phone number", "Check product availability", "Store services"},
	},
	{
		id:          EntryWebsite,
		keywords:    []string{"website", "site", "online", "portal"},
		response:    "Our website is https://www.example.com. You can browse products, track orders, and manage your account there.",
		suggestions: []string{"Account login help", "Browse products", "Track order", "Payment options"},
	},
	{
		id:          EntryAccount,
		keywords:    []string{"account", "login", "log in", "sign in", "password", "username"},
		response:    "You can access your account at https://www.example.com/login. For password reset, click 'Forgot Password' on that page.",
		suggestions: []string{"Reset password", "Update email", "Change username", "Delete account"},
	},
	{
		id:          EntryReturns,
		keywords:    []string{"return", "refund", "exchange", "policy"},
		response:    "We offer a 30-day return policy for unused items with original packaging. Would you like to initiate a return?",
		suggestions: []string{"Start return process", "Check return status", "Exchange item", "Return policy details"},
	},
	{
		id:          EntryShipping,
		keywords:    []string{"shipping", "delivery", "ship", "arrive", "when will"},
		response:    "Standard shipping takes 3-5 business days. Express shipping is available for next-day delivery in most areas.",
		suggestions: []string{"Track package", "Shipping options", "Delivery timeframe", "International shipping"},
	},
	{
		id:          EntryProductInfo,
		keywords:    []string{"product", "products", "item", "items", "spec", "specs", "feature", "features", "color", "colors", "size", "sizes"},
		response:    "I can help with product information. Please provide the product name or ID for specific details.",
		suggestions: []string{"Product availability", "Size guide", "Product reviews", "Alternative products"},
	},
	{
		id:          EntryFloral,
		keywords:    []string{"floral dress", "floral dresses", "flower dress", "summer dress", "dress with flowers"},
		response:    "Here are some beautiful floral dresses you might like:",
		suggestions: []string{"Show me more dresses", "What sizes are available?", "How about summer outfits?", "Show me accessories"},
		products: filter(func(p model.Product) bool {
			return p.Category == "dresses" || strings.Contains(strings.ToLower(p.Name), "floral")
		}),
	},
	{
		id:          EntryMensBoots,
		keywords:    []string{"men boots", "mens boots", "men's boots", "boots for men", "leather boots"},
		response:    "Here are some great men's boots options:",
		suggestions: []string{"Show me casual shoes", "What about sneakers?", "Show me winter boots", "Price range?"},
		products: filter(func(p model.Product) bool {
			return p.Category == "shoes" && strings.Contains(strings.ToLower(p.Name), "boot")
		}),
	},
	{
		id:          EntryCheapest,
		keywords:    []string{"cheap", "cheapest", "affordable", "budget", "low price", "inexpensive"},
		response:    "Here are our most affordable options:",
		suggestions: []string{"Under $50", "Under $100", "Show me sales", "Best value items"},
		products: func(catalog []model.Product) []model.Product {
			out := filter(func(p model.Product) bool { return p.Price < 60 })(catalog)
			sort.SliceStable(out, func(i, j int) bool { return out[i].Price < out[j].Price })
			return out
		},
	},
	{
		id:          EntryMens,
		keywords:    []string{"men", "mens", "men's", "man", "male"},
		response:    "Here are some popular men's products:",
		suggestions: []string{"Men's clothing", "Men's shoes", "Men's accessories", "Show me all men's items"},
		products:    filter(isMensProduct),
	},
	{
		id:          EntryWomens,
		keywords:    []string{"women", "womens", "women's", "woman", "female", "ladies"},
		response:    "Here are some popular women's products:",
		suggestions: []string{"Women's clothing", "Women's shoes", "Women's accessories", "Show me all women's items"},
		products:    filter(func(p model.Product) bool { return !isMensProduct(p) }),
	},
	{
		id:          EntryPictures,
		keywords:    []string{"picture", "pictures", "image", "images", "photo", "photos", "visual", "show me", "look like", "see"},
		response:    "Based on your preferences, here are some recommendations:",
		suggestions: []string{"Show me more options", "Different colors", "Similar styles", "Price range"},
		products: func(catalog []model.Product) []model.Product {
			if len(catalog) > 3 {
				catalog = catalog[:3]
			}
			return append([]model.Product(nil), catalog...)
		},
	},
}

var mensNameMatcher = textmatch.New("men", "mens", "men's")

func isMensProduct(p model.Product) bool {
	return mensNameMatcher.Match(textmatch.Normalize(p.Name))
}

func filter(keep func(model.Product) bool) func([]model.Product) []model.Product {
	return func(catalog []model.Product) []model.Product {
		var out []model.Product
		for _, p := range catalog {
			if keep(p) {
				out = append(out, p)
			}
		}
		return out
	}
}

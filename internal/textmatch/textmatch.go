// Package textmatch implements whole-word keyword matching over free text.
package textmatch

import (
	"regexp"
	"strings"
)

// Matcher tests whether any of its phrases occurs in a text as whole words:
// "men" matches "men's boots" but not "women".
type Matcher struct {
	keywords []string
	re       *regexp.Regexp
}

func New(keywords ...string) Matcher {
	quoted := make([]string, len(keywords))
	for i, kw := range keywords {
		quoted[i] = regexp.QuoteMeta(Normalize(kw))
	}
	pattern := `(?:^|[^\p{L}\p{N}])(?:` + strings.Join(quoted, "|") + `)(?:$|[^\p{L}\p{N}])`
	return Matcher{keywords: keywords, re: regexp.MustCompile(pattern)}
}

// Match expects text already passed through Normalize.
func (m Matcher) Match(normalized string) bool {
	if len(m.keywords) == 0 {
		return false
	}
	return m.re.MatchString(normalized)
}

// Contains normalizes text and matches it.
func (m Matcher) Contains(text string) bool {
	return m.Match(Normalize(text))
}

var apostrophes = strings.NewReplacer("’", "'", "‘", "'", "`", "'")

// Normalize lower-cases text, trims it and folds typographic apostrophes.
func Normalize(text string) string {
	return apostrophes.Replace(strings.ToLower(strings.TrimSpace(text)))
}

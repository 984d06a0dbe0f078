package textmatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatcher(t *testing.T) {
	m := New("men", "not working", "didn't receive")

	tests := []struct {
		input string
		want  bool
	}{
		{"boots for men", true},
		{"men's boots", true},
		{"MEN", true},
		{"women", false},
		{"mention", false},
		{"it's not working!", true},
		{"it's not workingish", false},
		{"I didn’t receive it", true},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Contains(tt.input))
		})
	}
}

func TestEmptyMatcher(t *testing.T) {
	assert.False(t, New().Contains("anything"))
}

func TestRegexpMetacharactersAreLiteral(t *testing.T) {
	m := New("under $50")
	assert.True(t, m.Contains("anything under $50?"))
	assert.False(t, m.Contains("under 50"))
}

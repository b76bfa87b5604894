package audit

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected string
	}{
		{input: "mystore", expected: "https://mystore"},
		{input: "mystore.myshopify.com", expected: "https://mystore.myshopify.com"},
		{input: "  mystore.com/collections/all  ", expected: "https://mystore.com/collections/all"},
		{input: "http://mystore.com", expected: "http://mystore.com"},
		{input: "HTTPS://mystore.com", expected: "HTTPS://mystore.com"},
		{input: "https://mystore.com", expected: "https://mystore.com"},
		{input: "httpbin.org", expected: "https://httpbin.org"},
		{input: "//cdn.mystore.com", expected: "https://cdn.mystore.com"},
		{input: "mystore.com?ref=a://b", expected: "https://mystore.com?ref=a://b"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := NormalizeURL(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestNormalizeURLRejectsBlankInput(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"", "   ", "\n\t", "my store.com", "//"} {
		_, err := NormalizeURL(input)
		assert.ErrorIs(t, err, ErrInvalidURL, "input %q", input)
	}
}

func TestBuildPrompt(t *testing.T) {
	t.Parallel()

	prompt := BuildPrompt("https://mystore.com")

	assert.Contains(t, prompt, "audit this specific URL: https://mystore.com")
	assert.Contains(t, prompt, "```json ... ```")
	assert.Contains(t, prompt, "Limit to top 4 recommendations")
	assert.Equal(t, 1, strings.Count(prompt, "https://mystore.com"))
	assert.NotContains(t, prompt, "%!")
}

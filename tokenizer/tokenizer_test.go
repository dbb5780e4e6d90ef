package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenizeSimple(t *testing.T) {
	tests := []struct {
		input     string
		delimiter string
		expected  []string
	}{
		{"a,b,c", ",", []string{"a", "b", "c"}},
		{"a, b , c", ",", []string{"a", " b ", " c"}},
		{"a", ",", []string{"a"}},
		{"", ",", nil},
		{",,", ",", nil},
	}

	for _, test := range tests {
		got, err := Tokenize(test.input, test.delimiter)
		require.NoError(t, err, test.input)
		assert.Equal(t, test.expected, got, test.input)
	}
}

func TestTokenizeRespectsBrackets(t *testing.T) {
	got, err := Tokenize("f(a, b), g(c, d)", ",")
	require.NoError(t, err)
	assert.Equal(t, []string{"f(a, b)", " g(c, d)"}, got)
}

func TestTokenizeRespectsQuotes(t *testing.T) {
	got, err := Tokenize(`"a,b",c`, ",")
	require.NoError(t, err)
	assert.Equal(t, []string{`"a,b"`, "c"}, got)
}

func TestTokenizeHandlesEscapes(t *testing.T) {
	got, err := Tokenize(`"a\"b",c`, ",")
	require.NoError(t, err)
	assert.Equal(t, []string{`"a\"b"`, "c"}, got)
}

func TestTokenizeErrors(t *testing.T) {
	tests := []string{
		"(unterminated",
		`"unterminated`,
		`"a\`,
	}

	for _, test := range tests {
		_, err := Tokenize(test, ",")
		assert.Error(t, err, test)
	}

	_, err := Tokenize("anything", "")
	assert.Error(t, err, "empty delimiter")
}

func TestTokenizeMultiCharDelimiter(t *testing.T) {
	got, err := Tokenize("a then b then c", "then")
	require.NoError(t, err)
	assert.Equal(t, []string{"a ", " b ", " c"}, got)
}

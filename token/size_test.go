package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSizeKeyword(t *testing.T) {
	tests := []struct {
		size     Size
		keyword  string
		narrowR10 string
		narrowAL string
	}{
		{Normal, "qword", "r10", "rax"},
		{Byte, "byte", "r10b", "al"},
		{Word, "word", "r10w", "ax"},
		{Long, "dword", "r10d", "eax"},
	}

	for _, test := range tests {
		assert.Equal(t, test.keyword, test.size.Keyword())
		assert.Equal(t, test.narrowR10, test.size.NarrowR10())
		assert.Equal(t, test.narrowAL, test.size.NarrowAL())
	}
}

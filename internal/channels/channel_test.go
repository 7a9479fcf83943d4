package channels

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "abc...", Truncate("abcdef", 3))

	// "Привет" is two bytes per letter; byte 3 is inside the second letter.
	got := Truncate("Привет", 3)
	assert.Equal(t, "П...", got)
	assert.True(t, utf8.ValidString(got))
}

func TestRuneCut(t *testing.T) {
	tests := []struct {
		name string
		s    string
		n    int
		want int
	}{
		{name: "ascii", s: "abcdef", n: 4, want: 4},
		{name: "past end", s: "abc", n: 10, want: 3},
		{name: "on boundary", s: "Привет", n: 4, want: 4},
		{name: "inside rune", s: "Привет", n: 5, want: 4},
		{name: "wide first rune", s: "日本", n: 2, want: 3},
		{name: "zero", s: "abc", n: 0, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RuneCut(tt.s, tt.n))
		})
	}

	long := strings.Repeat("ж", 100)
	for n := 1; n < len(long); n++ {
		assert.True(t, utf8.ValidString(long[:RuneCut(long, n)]), "cut at %d", n)
	}
}

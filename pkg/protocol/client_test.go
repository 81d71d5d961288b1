package protocol

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitText(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		limit int
		want  []string
	}{
		{"short", "hello friend", 20, []string{"hello friend"}},
		{"exact", "hello friend", 12, []string{"hello friend"}},
		{"words", "the quick brown fox", 10, []string{"the quick", "brown fox"}},
		{"collapses whitespace", "  a \n b  ", 10, []string{"a b"}},
		{"long word", "abcdefghij xy", 4, []string{"abcd", "efgh", "ij", "xy"}},
		{"multibyte", "èèè", 3, []string{"è", "è", "è"}},
		{"tiny limit", "è", 1, []string{"è"}},
		{"empty", "   ", 10, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitText(tt.text, tt.limit))
		})
	}
}

func TestSplitText_RespectsDatagramSize(t *testing.T) {
	text := strings.Repeat("pasta ", 2000)

	chunks := SplitText(text, MaxDatagram)

	assert.Len(t, chunks, 3)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), MaxDatagram)
	}
	assert.Equal(t, strings.TrimSpace(text), strings.Join(chunks, " "))
}

func TestDiscoveryTarget(t *testing.T) {
	assert.Equal(t, "255.255.255.255:3636", discoveryTarget(""))
	assert.Equal(t, DefaultBroadcast, discoveryTarget(""))
	assert.Equal(t, "192.168.1.255:3636", discoveryTarget("192.168.1.255:3636"))
}

package tokens

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeuristicCountTokens(t *testing.T) {
	h := NewHeuristic()

	tests := []struct {
		name string
		text string
		want int
	}{
		{name: "empty", text: "", want: 0},
		{name: "one char rounds up", text: "a", want: 1},
		{name: "exact multiple", text: "abcd", want: 1},
		{name: "one over rounds up", text: "abcde", want: 2},
		{name: "long text", text: strings.Repeat("x", 100), want: 25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, h.CountTokens(tt.text))
		})
	}
}

func TestHeuristicCustomRatio(t *testing.T) {
	h := Heuristic{CharsPerToken: 2}
	assert.Equal(t, 5, h.CountTokens("abcdefghij"))
}

func TestHeuristicZeroRatioFallsBack(t *testing.T) {
	h := Heuristic{}
	assert.Equal(t, 1, h.CountTokens("abcd"))
	assert.Equal(t, 2, h.CountTokens("abcdefg"))
}

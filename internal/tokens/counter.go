// Package tokens estimates the size cost of extracted content.
package tokens

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// Counter estimates the token cost of a piece of text.
type Counter interface {
	CountTokens(text string) int
}

// HeuristicModel selects the heuristic counter in configuration
// instead of a real BPE encoding.
const HeuristicModel = "heuristic"

const defaultCharsPerToken = 4

// Heuristic approximates cost with a fixed characters-per-token ratio.
// It needs no encoder data, which keeps runs and tests offline.
type Heuristic struct {
	CharsPerToken int
}

var _ Counter = Heuristic{}

// NewHeuristic returns the default chars-per-token estimator.
func NewHeuristic() Heuristic {
	return Heuristic{CharsPerToken: defaultCharsPerToken}
}

func (h Heuristic) CountTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	cpt := h.CharsPerToken
	if cpt <= 0 {
		cpt = defaultCharsPerToken
	}
	return (len(text) + cpt - 1) / cpt
}

// Tiktoken counts with the BPE encoding of a concrete model. The
// encoding is resolved once and is safe for concurrent use.
type Tiktoken struct {
	enc   *tiktoken.Tiktoken
	model string
}

var _ Counter = (*Tiktoken)(nil)

// NewTiktoken resolves the encoding for a model name.
func NewTiktoken(model string) (*Tiktoken, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return nil, fmt.Errorf("resolve encoding for %q: %w", model, err)
	}
	return &Tiktoken{enc: enc, model: model}, nil
}

func (t *Tiktoken) CountTokens(text string) int {
	return len(t.enc.Encode(text, nil, nil))
}

func (t *Tiktoken) Model() string {
	return t.model
}

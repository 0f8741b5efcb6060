package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStrategyString(t *testing.T) {
	assert.Equal(t, "SKIP", Skip.String())
	assert.Equal(t, "MINIMAL", Minimal.String())
	assert.Equal(t, "SIGNATURE", Signature.String())
	assert.Equal(t, "FULL", Full.String())
	assert.Equal(t, "UNKNOWN", Strategy(42).String())
}

func TestStrategyDowngrade(t *testing.T) {
	assert.Equal(t, Signature, Full.Downgrade())
	assert.Equal(t, Minimal, Signature.Downgrade())
	assert.Equal(t, Skip, Minimal.Downgrade())
	assert.Equal(t, Skip, Skip.Downgrade(), "skip is the floor")
}

func TestStrategyOrdering(t *testing.T) {
	assert.True(t, Skip < Minimal)
	assert.True(t, Minimal < Signature)
	assert.True(t, Signature < Full)
}

package settings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCliParams(t *testing.T) {
	s := NewCliParams()
	assert.Equal(t, int8(0), s.MinLogLevel)
	assert.Equal(t, "table", s.Output)
	assert.False(t, s.Interactive)
}

func TestContextRoundTrip(t *testing.T) {
	s := NewCliParams()
	s.NoColor = true
	ctx := IntoContext(context.Background(), s)

	got, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Same(t, s, got)

	_, ok = FromContext(context.Background())
	assert.False(t, ok)
}

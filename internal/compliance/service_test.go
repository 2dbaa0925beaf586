package compliance

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePoster struct {
	response map[string]any
}

func (f *fakePoster) Post(context.Context, string, any) (map[string]any, int, error) {
	return f.response, 200, nil
}

func TestScreen_DefaultsToApproved(t *testing.T) {
	s := New(&fakePoster{response: map[string]any{}})

	result, err := s.Screen(context.Background(), map[string]any{"amount": 100})
	require.NoError(t, err)
	assert.Equal(t, true, result["approved"])
}

func TestScreen_HonorsExplicitDenial(t *testing.T) {
	s := New(&fakePoster{response: map[string]any{"approved": false, "reason": "sanctions-match"}})

	result, err := s.Screen(context.Background(), map[string]any{"amount": 100})
	require.NoError(t, err)
	assert.Equal(t, false, result["approved"])
}

package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockEventHandler(t *testing.T) {
	handler := NewMockEventHandler("ClaimReviewed")
	assert.Equal(t, []string{"ClaimReviewed"}, handler.EventTypes())

	event := NewTestEvent("ClaimReviewed")
	require.NoError(t, handler.Handle(context.Background(), event))
	assert.Equal(t, 1, handler.HandledCount())
	assert.Equal(t, event, handler.Handled()[0])

	handler.SetError(assert.AnError)
	assert.Equal(t, assert.AnError, handler.Handle(context.Background(), event))
}

func TestRecordingPublisher(t *testing.T) {
	p := NewRecordingPublisher()

	require.NoError(t, p.Publish(context.Background(), NewTestEvent("A"), NewTestEvent("B")))
	assert.Equal(t, []string{"A", "B"}, p.EventTypes())
	assert.Len(t, p.Events(), 2)

	p.SetError(assert.AnError)
	assert.ErrorIs(t, p.Publish(context.Background(), NewTestEvent("C")), assert.AnError)
}

func TestWaitForCondition(t *testing.T) {
	calls := 0
	ok := WaitForCondition(t, func() bool {
		calls++
		return calls >= 3
	}, time.Second, time.Millisecond)
	assert.True(t, ok)

	assert.False(t, WaitForCondition(t, func() bool { return false }, 5*time.Millisecond, time.Millisecond))
}

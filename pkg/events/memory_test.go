package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubjectMatches(t *testing.T) {
	cases := []struct {
		pattern, subject string
		want             bool
	}{
		{"visitor.created", "visitor.created", true},
		{"visitor.created", "visitor.deleted", false},
		{"visitor.>", "visitor.deleted", true},
		{"user.>", "user.role.changed", true},
		{"user.>", "user", false},
		{"user.*", "user.role.changed", false},
		{"user.*.changed", "user.role.changed", true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, subjectMatches(tc.pattern, tc.subject), "%s vs %s", tc.pattern, tc.subject)
	}
}

func TestMemoryBusDelivers(t *testing.T) {
	bus := NewMemoryBus()
	var got []VisitorDeletedEvent
	require.NoError(t, bus.Subscribe(AllVisitorEvents, func(msg *Message) {
		var ev VisitorDeletedEvent
		require.NoError(t, json.Unmarshal(msg.Data, &ev))
		got = append(got, ev)
	}))

	require.NoError(t, bus.Publish(context.Background(), VisitorDeleted, VisitorDeletedEvent{VisitorID: 42, DeletedBy: "u1"}))
	require.NoError(t, bus.Publish(context.Background(), UserDeleted, UserDeletedEvent{UserID: "u2"}))

	require.Len(t, got, 1)
	assert.Equal(t, int64(42), got[0].VisitorID)
	assert.Equal(t, []string{VisitorDeleted, UserDeleted}, bus.Published())
}

func TestMemoryBusQueueGroupDeliversOnce(t *testing.T) {
	bus := NewMemoryBus()
	var a, b int
	require.NoError(t, bus.QueueSubscribe(AllUserEvents, "audit", func(*Message) { a++ }))
	require.NoError(t, bus.QueueSubscribe(AllUserEvents, "audit", func(*Message) { b++ }))

	for i := 0; i < 4; i++ {
		require.NoError(t, bus.Publish(context.Background(), UserRoleChanged, UserRoleChangedEvent{UserID: "x"}))
	}

	assert.Equal(t, 4, a+b)
	assert.Equal(t, 2, a)
}

func TestMemoryBusClosed(t *testing.T) {
	bus := NewMemoryBus()
	require.NoError(t, bus.Close())
	assert.Error(t, bus.Publish(context.Background(), VisitorCreated, VisitorCreatedEvent{}))
}

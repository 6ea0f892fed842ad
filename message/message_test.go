package message

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageReset(t *testing.T) {
	m := &Message{ID: "abc", Role: RoleCall, Type: Heartbeat, Payload: []byte("x"), Expiry: 42, Attempts: 3}
	m.Reset()

	assert.Equal(t, "", m.ID)
	assert.Equal(t, RoleNone, m.Role)
	assert.Equal(t, Unknown, m.Type)
	assert.Nil(t, m.Payload)
	assert.Equal(t, int64(0), m.Expiry)
	assert.Equal(t, 0, m.Attempts)
}

func TestRoleString(t *testing.T) {
	tests := []struct {
		role Role
		want string
	}{
		{RoleNone, "NONE"},
		{RoleAlloc, "ALLOC"},
		{RoleCall, "CALL"},
		{RoleCallResult, "CALLRESULT"},
		{RoleCallError, "CALLERROR"},
		{Role(99), "Role(99)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.role.String())
	}
}

func TestListFIFOOrder(t *testing.T) {
	l := NewList()
	a := &Message{ID: "a"}
	b := &Message{ID: "b"}
	c := &Message{ID: "c"}

	l.PushBack(a)
	l.PushBack(b)
	l.PushBack(c)

	require.Equal(t, 3, l.Len())

	var order []string
	l.Each(func(m *Message) bool {
		order = append(order, m.ID)
		return true
	})
	assert.Equal(t, []string{"a", "b", "c"}, order)
	assert.Equal(t, a, l.Front())
}

func TestListPushFrontPreemptsQueue(t *testing.T) {
	l := NewList()
	a := &Message{ID: "a"}
	b := &Message{ID: "b"}

	l.PushBack(a)
	l.PushFront(b)

	assert.Equal(t, b, l.Front())

	var order []string
	l.Each(func(m *Message) bool {
		order = append(order, m.ID)
		return true
	})
	assert.Equal(t, []string{"b", "a"}, order)
}

func TestListRemove(t *testing.T) {
	l := NewList()
	a := &Message{ID: "a"}
	b := &Message{ID: "b"}
	c := &Message{ID: "c"}
	l.PushBack(a)
	l.PushBack(b)
	l.PushBack(c)

	l.Remove(b)

	require.Equal(t, 2, l.Len())
	assert.False(t, b.InList())
	assert.True(t, a.InList())

	var order []string
	l.Each(func(m *Message) bool {
		order = append(order, m.ID)
		return true
	})
	assert.Equal(t, []string{"a", "c"}, order)
}

func TestListRemoveNotMemberIsNoop(t *testing.T) {
	l1 := NewList()
	l2 := NewList()
	a := &Message{ID: "a"}
	l1.PushBack(a)

	l2.Remove(a) // a belongs to l1, not l2

	assert.Equal(t, 1, l1.Len())
	assert.True(t, a.InList())
}

func TestListReinsertAfterRemove(t *testing.T) {
	l := NewList()
	a := &Message{ID: "a"}
	l.PushBack(a)
	l.Remove(a)

	require.NotPanics(t, func() {
		l.PushBack(a)
	})
	assert.Equal(t, 1, l.Len())
}

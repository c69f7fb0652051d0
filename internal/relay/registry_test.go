package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient() *Client {
	return &Client{send: make(chan *Message, 16)}
}

func TestRegistry_CreateJoinsCreator(t *testing.T) {
	reg := NewRegistry()
	c := newTestClient()

	roomID := reg.Create(c)
	require.NotEmpty(t, roomID)

	got, ok := reg.RoomOf(c)
	require.True(t, ok)
	assert.Equal(t, roomID, got)
	assert.Equal(t, 1, reg.RoomCount())
}

func TestRegistry_RoomsExistOnlyWhilePopulated(t *testing.T) {
	reg := NewRegistry()
	a, b := newTestClient(), newTestClient()

	roomID := reg.Create(a)
	reg.Join(b, roomID)

	_, ok := reg.Members(roomID, nil)
	require.True(t, ok)

	reg.Leave(a)
	_, ok = reg.Members(roomID, nil)
	assert.True(t, ok, "room must survive while a member remains")

	reg.Leave(b)
	_, ok = reg.Members(roomID, nil)
	assert.False(t, ok, "empty room must be deleted")
	assert.Equal(t, 0, reg.RoomCount())
}

func TestRegistry_JoinRecreatesVacatedRoom(t *testing.T) {
	reg := NewRegistry()
	a := newTestClient()

	roomID := reg.Create(a)
	reg.Leave(a)
	require.Equal(t, 0, reg.RoomCount())

	// Join-or-create: the same id is usable again after teardown.
	b := newTestClient()
	reg.Join(b, roomID)

	members, ok := reg.Members(roomID, nil)
	require.True(t, ok)
	assert.Len(t, members, 1)
}

func TestRegistry_LeaveIsIdempotent(t *testing.T) {
	reg := NewRegistry()
	c := newTestClient()

	reg.Create(c)
	roomID, remaining := reg.Leave(c)
	require.NotEmpty(t, roomID)
	assert.Empty(t, remaining)

	roomID, remaining = reg.Leave(c)
	assert.Empty(t, roomID)
	assert.Empty(t, remaining)
}

func TestRegistry_JoinLeavesPreviousRoom(t *testing.T) {
	reg := NewRegistry()
	c := newTestClient()

	first := reg.Create(c)
	reg.Join(c, "other-room")

	_, ok := reg.Members(first, nil)
	assert.False(t, ok, "old room should be torn down when its only member moves")

	got, ok := reg.RoomOf(c)
	require.True(t, ok)
	assert.Equal(t, "other-room", got)
}

func TestRegistry_LeaveReturnsRemainingMembers(t *testing.T) {
	reg := NewRegistry()
	a, b, c := newTestClient(), newTestClient(), newTestClient()

	roomID := reg.Create(a)
	reg.Join(b, roomID)
	reg.Join(c, roomID)

	_, remaining := reg.Leave(a)
	assert.Len(t, remaining, 2)
	assert.NotContains(t, remaining, a)
}

func TestRegistry_MembersExcludesSender(t *testing.T) {
	reg := NewRegistry()
	a, b := newTestClient(), newTestClient()

	roomID := reg.Create(a)
	reg.Join(b, roomID)

	members, ok := reg.Members(roomID, a)
	require.True(t, ok)
	require.Len(t, members, 1)
	assert.Equal(t, b, members[0])
}

func TestRegistry_CreateIssuesDistinctRooms(t *testing.T) {
	reg := NewRegistry()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := reg.Create(newTestClient())
		assert.False(t, seen[id], "room id %q issued twice", id)
		seen[id] = true
	}
}

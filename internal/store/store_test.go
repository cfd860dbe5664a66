package store

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

var ticketIDPattern = regexp.MustCompile(`^[0-9A-F]{8}$`)

func TestCreateTicketIdempotent(t *testing.T) {
	s := New(nil)

	first, created := s.CreateTicket(1)
	require.True(t, created)
	require.Regexp(t, ticketIDPattern, first)

	second, created := s.CreateTicket(1)
	require.False(t, created, "second create must be a no-op")
	require.Equal(t, first, second)

	got, ok := s.OpenTicket(1)
	require.True(t, ok)
	require.Equal(t, first, got)
}

func TestOpenTicketNone(t *testing.T) {
	s := New(nil)
	_, ok := s.OpenTicket(42)
	require.False(t, ok)
}

func TestCloseByUser(t *testing.T) {
	s := New(nil)
	id, _ := s.CreateTicket(1)

	closed, ok := s.CloseByUser(1)
	require.True(t, ok)
	require.Equal(t, id, closed)

	_, ok = s.OpenTicket(1)
	require.False(t, ok)

	// Idempotent.
	_, ok = s.CloseByUser(1)
	require.False(t, ok)
}

func TestCloseByTicketNormalizesCase(t *testing.T) {
	s := New(nil)
	id, _ := s.CreateTicket(7)

	user, ok := s.CloseByTicket("  " + strings.ToLower(id) + " ")
	require.True(t, ok)
	require.Equal(t, int64(7), user)

	_, ok = s.CloseByTicket(id)
	require.False(t, ok, "closing a closed ticket is a no-op")
}

func TestPurgeTicketRemovesOnlyItsEntries(t *testing.T) {
	s := New(nil)
	a, _ := s.CreateTicket(1)
	b, _ := s.CreateTicket(2)

	s.Record(10, a, 1)
	s.Record(11, a, 1)
	s.Record(12, b, 2)

	s.PurgeTicket(strings.ToLower(a))

	_, ok := s.Resolve(10)
	require.False(t, ok)
	_, ok = s.Resolve(11)
	require.False(t, ok)

	c, ok := s.Resolve(12)
	require.True(t, ok)
	require.Equal(t, b, c.TicketID)
	require.Equal(t, int64(2), c.UserID)
}

func TestRecordOverwritesSilently(t *testing.T) {
	s := New(nil)
	a, _ := s.CreateTicket(1)
	b, _ := s.CreateTicket(2)

	s.Record(10, a, 1)
	s.Record(10, b, 2)

	c, ok := s.Resolve(10)
	require.True(t, ok)
	require.Equal(t, b, c.TicketID)
}

func TestTicketIDsInjective(t *testing.T) {
	s := New(nil)
	seen := make(map[string]bool)
	for uid := int64(0); uid < 200; uid++ {
		id, created := s.CreateTicket(uid)
		require.True(t, created)
		require.False(t, seen[id], "duplicate open ticket id %s", id)
		seen[id] = true
	}
}

package store

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/Kumatsegayie/nunersupportbot/internal/models"
)

// Persister loads the routing state at startup and writes a full snapshot
// after every mutating event. Implementations never touch live state.
type Persister interface {
	Load(ctx context.Context) (*models.Snapshot, error)
	Save(ctx context.Context, snap *models.Snapshot) error
}

// State owns the user→ticket index and the correlation table. It does no
// locking of its own: the router serializes all access behind a single
// mutual-exclusion domain.
type State struct {
	snap *models.Snapshot
}

func New(snap *models.Snapshot) *State {
	if snap == nil {
		snap = models.NewSnapshot()
	}
	if snap.TicketMappings == nil {
		snap.TicketMappings = make(map[int64]models.Correlation)
	}
	if snap.UserTickets == nil {
		snap.UserTickets = make(map[int64]string)
	}
	return &State{snap: snap}
}

// NormalizeTicketID uppercases an id for comparison. Generated ids are
// already uppercase; admin-typed ids may not be.
func NormalizeTicketID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// OpenTicket returns the user's open ticket id, if any.
func (s *State) OpenTicket(userID int64) (string, bool) {
	id, ok := s.snap.UserTickets[userID]
	return id, ok
}

// CreateTicket opens a ticket for the user and returns its id. If the user
// already has an open ticket the call is an idempotent no-op returning the
// existing id with created=false.
func (s *State) CreateTicket(userID int64) (string, bool) {
	if id, ok := s.snap.UserTickets[userID]; ok {
		return id, false
	}
	id := s.newTicketID()
	s.snap.UserTickets[userID] = id
	return id, true
}

// newTicketID generates a short uppercase id, regenerating on the (unlikely)
// collision with a currently open ticket.
func (s *State) newTicketID() string {
	for {
		id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
		if _, taken := s.FindUserByTicket(id); !taken {
			return id
		}
	}
}

// CloseByUser removes the user's index entry, returning the closed ticket id.
// Closing with no open ticket is a no-op, not an error.
func (s *State) CloseByUser(userID int64) (string, bool) {
	id, ok := s.snap.UserTickets[userID]
	if !ok {
		return "", false
	}
	delete(s.snap.UserTickets, userID)
	return id, true
}

// CloseByTicket removes the index entry owning ticketID, returning the
// affected user. Idempotent like CloseByUser.
func (s *State) CloseByTicket(ticketID string) (int64, bool) {
	userID, ok := s.FindUserByTicket(ticketID)
	if !ok {
		return 0, false
	}
	delete(s.snap.UserTickets, userID)
	return userID, true
}

// FindUserByTicket scans the index for the user owning ticketID. Linear scan
// is fine at support-traffic scale.
func (s *State) FindUserByTicket(ticketID string) (int64, bool) {
	ticketID = NormalizeTicketID(ticketID)
	for uid, tid := range s.snap.UserTickets {
		if tid == ticketID {
			return uid, true
		}
	}
	return 0, false
}

// Record maps an outbound admin-facing message id to its ticket and user.
// A reused message id overwrites silently; transport ids are assumed unique.
func (s *State) Record(msgID int64, ticketID string, userID int64) {
	s.snap.TicketMappings[msgID] = models.Correlation{TicketID: ticketID, UserID: userID}
}

// Resolve looks up the correlation entry for a replied-to message id.
func (s *State) Resolve(msgID int64) (models.Correlation, bool) {
	c, ok := s.snap.TicketMappings[msgID]
	return c, ok
}

// PurgeTicket removes every correlation entry for ticketID. Called exactly
// once as part of ticket closure, under the same critical section as the
// index removal.
func (s *State) PurgeTicket(ticketID string) {
	ticketID = NormalizeTicketID(ticketID)
	for msgID, c := range s.snap.TicketMappings {
		if c.TicketID == ticketID {
			delete(s.snap.TicketMappings, msgID)
		}
	}
}

// Snapshot returns a copy safe to hand to a Persister outside any lock the
// caller may later release.
func (s *State) Snapshot() *models.Snapshot {
	return s.snap.Clone()
}

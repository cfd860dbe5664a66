package models

import (
	"encoding/json"
	"fmt"
)

// Correlation links an outbound message delivered to an admin back to the
// ticket and user it concerns. It is persisted as a two-element
// [ticket_id, user_id] array to match the on-disk document layout.
type Correlation struct {
	TicketID string
	UserID   int64
}

func (c Correlation) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{c.TicketID, c.UserID})
}

func (c *Correlation) UnmarshalJSON(b []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(b, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("correlation entry: want 2 elements, got %d", len(pair))
	}
	if err := json.Unmarshal(pair[0], &c.TicketID); err != nil {
		return fmt.Errorf("correlation ticket id: %w", err)
	}
	if err := json.Unmarshal(pair[1], &c.UserID); err != nil {
		return fmt.Errorf("correlation user id: %w", err)
	}
	return nil
}

// Snapshot is the full persisted routing state: every correlation entry and
// every open ticket. Map keys serialize as decimal strings.
type Snapshot struct {
	TicketMappings map[int64]Correlation `json:"ticket_mappings"`
	UserTickets    map[int64]string      `json:"user_tickets"`
}

func NewSnapshot() *Snapshot {
	return &Snapshot{
		TicketMappings: make(map[int64]Correlation),
		UserTickets:    make(map[int64]string),
	}
}

func (s *Snapshot) Clone() *Snapshot {
	out := NewSnapshot()
	for k, v := range s.TicketMappings {
		out.TicketMappings[k] = v
	}
	for k, v := range s.UserTickets {
		out.UserTickets[k] = v
	}
	return out
}

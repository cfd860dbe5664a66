package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCorrelationRejectsWrongArity(t *testing.T) {
	var c Correlation
	require.Error(t, json.Unmarshal([]byte(`["ABCD1234"]`), &c))
	require.Error(t, json.Unmarshal([]byte(`["ABCD1234", 1, 2]`), &c))
	require.Error(t, json.Unmarshal([]byte(`{"ticket":"ABCD1234"}`), &c))
}

func TestCloneIsIndependent(t *testing.T) {
	snap := NewSnapshot()
	snap.UserTickets[1] = "ABCD1234"
	snap.TicketMappings[10] = Correlation{TicketID: "ABCD1234", UserID: 1}

	clone := snap.Clone()
	clone.UserTickets[2] = "FFFF0000"
	delete(clone.TicketMappings, 10)

	require.Len(t, snap.UserTickets, 1)
	_, ok := snap.TicketMappings[10]
	require.True(t, ok)
}

package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDate_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Date
		wantErr bool
	}{
		{"calendar date", `"2025-06-14"`, NewDate(2025, time.June, 14), false},
		{"rfc3339", `"2025-06-14T00:00:00Z"`, NewDate(2025, time.June, 14), false},
		{"empty", `""`, Date{}, false},
		{"garbage", `"14/06/2025"`, Date{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Date
			err := json.Unmarshal([]byte(tt.in), &d)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(d.Time), "got %v", d)
		})
	}
}

func TestEvent_DecodesInventoryPayload(t *testing.T) {
	payload := `{
		"id": "E1",
		"title": "Jazz Night",
		"date": "2025-06-14",
		"time": "19:30",
		"totalSeats": 100,
		"availableSeats": 40,
		"ticketTypes": [{"id": "T1", "name": "General", "price": 500, "available": 40}]
	}`

	var e Event
	require.NoError(t, json.Unmarshal([]byte(payload), &e))

	assert.Equal(t, "2025-06-14", e.Date.String())
	assert.Equal(t, 40, e.AvailableSeats)
	require.NoError(t, e.Validate())

	tier, ok := e.Tier("T1")
	require.True(t, ok)
	assert.Equal(t, 500.0, tier.Price)
}

func TestEvent_Validate(t *testing.T) {
	e := Event{ID: "E1", TotalSeats: 10, AvailableSeats: 11}
	assert.Error(t, e.Validate())

	e = Event{ID: "E1", TotalSeats: 10, AvailableSeats: 5, TicketTypes: []TicketType{{ID: "T1", Available: -1}}}
	assert.Error(t, e.Validate())

	e = Event{ID: "E1", TotalSeats: 10, AvailableSeats: 5, TicketTypes: []TicketType{
		{ID: "T1", Available: 3},
		{ID: "T2", Available: 3},
	}}
	assert.Error(t, e.Validate(), "tiers exceed the event's available seats")

	e.TicketTypes[1].Available = 2
	assert.NoError(t, e.Validate())
}

func TestServerMessage(t *testing.T) {
	err := &ServiceError{Kind: ErrValidation, Status: 400, Message: "Not enough tickets available"}

	msg, ok := ServerMessage(err)
	assert.True(t, ok)
	assert.Equal(t, "Not enough tickets available", msg)
	assert.ErrorIs(t, err, ErrValidation)

	_, ok = ServerMessage(&ServiceError{Kind: ErrTransport, Status: 500})
	assert.False(t, ok)
}

package ingest_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmarchand/quartermaster-go/internal/adapters/ingest"
	"github.com/dmarchand/quartermaster-go/internal/domain/shared"
)

func TestDecodeEventValid(t *testing.T) {
	raw := []byte(`{
		"node_id": "depot-1",
		"item": "Bandages",
		"new_quantity": 40,
		"source": "scanner",
		"timestamp": "2026-08-01T12:00:00Z"
	}`)

	event, err := ingest.DecodeEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, "depot-1", event.NodeID)
	assert.Equal(t, "Bandages", event.Item)
	assert.Equal(t, 40, event.NewQuantity)
	assert.Equal(t, "scanner", event.Source)
	assert.True(t, event.Timestamp.Equal(time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)))
}

func TestDecodeEventSourceOptional(t *testing.T) {
	raw := []byte(`{
		"node_id": "depot-1",
		"item": "Bandages",
		"new_quantity": 0,
		"timestamp": "2026-08-01T12:00:00Z"
	}`)

	event, err := ingest.DecodeEvent(raw)
	require.NoError(t, err)
	assert.Equal(t, "", event.Source)
	assert.Equal(t, 0, event.NewQuantity)
}

func TestDecodeEventRejectsMalformed(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"not json", `{node_id}`},
		{"missing node id", `{"item":"Bandages","new_quantity":1,"timestamp":"2026-08-01T12:00:00Z"}`},
		{"empty item", `{"node_id":"depot-1","item":"","new_quantity":1,"timestamp":"2026-08-01T12:00:00Z"}`},
		{"negative quantity", `{"node_id":"depot-1","item":"Bandages","new_quantity":-3,"timestamp":"2026-08-01T12:00:00Z"}`},
		{"fractional quantity", `{"node_id":"depot-1","item":"Bandages","new_quantity":1.5,"timestamp":"2026-08-01T12:00:00Z"}`},
		{"bad timestamp", `{"node_id":"depot-1","item":"Bandages","new_quantity":1,"timestamp":"yesterday"}`},
		{"unknown field", `{"node_id":"depot-1","item":"Bandages","new_quantity":1,"timestamp":"2026-08-01T12:00:00Z","extra":true}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ingest.DecodeEvent([]byte(tc.raw))
			require.Error(t, err)
			var vErr *shared.ValidationError
			assert.ErrorAs(t, err, &vErr)
		})
	}
}

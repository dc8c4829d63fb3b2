package ingest

import (
	"encoding/json"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/dmarchand/quartermaster-go/internal/domain/demand"
	"github.com/dmarchand/quartermaster-go/internal/domain/shared"
)

// inventoryEventSchema validates raw event payloads before they reach the
// propagation engine. Quantity and timestamp constraints are enforced again
// by the engine; the schema exists to reject malformed payloads with a
// message naming the offending field.
const inventoryEventSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["node_id", "item", "new_quantity", "timestamp"],
  "properties": {
    "node_id": {"type": "string", "minLength": 1},
    "item": {"type": "string", "minLength": 1},
    "new_quantity": {"type": "integer", "minimum": 0},
    "source": {"type": "string"},
    "timestamp": {"type": "string", "format": "date-time"}
  },
  "additionalProperties": false
}`

var compiledEventSchema = jsonschema.MustCompileString("inventory_event.schema.json", inventoryEventSchema)

// eventPayload is the wire shape of one inventory report
type eventPayload struct {
	NodeID      string `json:"node_id"`
	Item        string `json:"item"`
	NewQuantity int    `json:"new_quantity"`
	Source      string `json:"source"`
	Timestamp   string `json:"timestamp"`
}

// DecodeEvent validates and decodes one raw inventory event payload
func DecodeEvent(raw []byte) (*demand.InventoryEvent, error) {
	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, shared.NewValidationError("payload", "event payload is not valid JSON")
	}
	if err := compiledEventSchema.Validate(generic); err != nil {
		return nil, shared.NewValidationError("payload", err.Error())
	}

	var payload eventPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, shared.NewValidationError("payload", err.Error())
	}
	timestamp, err := time.Parse(time.RFC3339, payload.Timestamp)
	if err != nil {
		return nil, shared.NewValidationError("timestamp", "timestamp must be RFC 3339")
	}
	return &demand.InventoryEvent{
		NodeID:      payload.NodeID,
		Item:        payload.Item,
		NewQuantity: payload.NewQuantity,
		Source:      payload.Source,
		Timestamp:   timestamp.UTC(),
	}, nil
}

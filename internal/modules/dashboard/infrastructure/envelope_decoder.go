package infrastructure

import (
	"encoding/json"
	"fmt"
	"io"

	"mesaYaWaitlist/internal/modules/dashboard/application/port"
)

const maxEnvelopeBytes = 4 << 20

// decodeEnvelope reads {"body": "<json array>"} and returns the decoded array.
// The body must be a string holding a JSON array; anything else is malformed.
func decodeEnvelope(r io.Reader) ([]any, error) {
	raw, err := io.ReadAll(io.LimitReader(r, maxEnvelopeBytes))
	if err != nil {
		return nil, fmt.Errorf("read envelope: %w", err)
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", port.ErrMalformedEnvelope, err)
	}
	body, ok := envelope["body"]
	if !ok {
		return nil, fmt.Errorf("%w: missing body", port.ErrMalformedEnvelope)
	}

	var inner string
	if err := json.Unmarshal(body, &inner); err != nil {
		return nil, fmt.Errorf("%w: body is not a string", port.ErrMalformedEnvelope)
	}

	var items []any
	if err := json.Unmarshal([]byte(inner), &items); err != nil {
		return nil, fmt.Errorf("%w: body is not a json array: %v", port.ErrMalformedEnvelope, err)
	}
	if items == nil {
		items = []any{}
	}
	return items, nil
}

package updaterequest

import (
	"bytes"
	"encoding/json"
	"errors"
)

var ErrEmptyPayload = errors.New("update request payload proposes no changes")

// NormalizePayload decodes a proposal payload, rejecting anything that is
// not a JSON object with at least one key. Keys absent from the payload are
// absent by construction; an object with no keys proposes no change and is
// never persisted.
func NormalizePayload(data json.RawMessage) (map[string]any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyPayload
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if len(m) == 0 {
		return nil, ErrEmptyPayload
	}
	return m, nil
}

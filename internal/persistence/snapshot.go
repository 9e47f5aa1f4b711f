package persistence

import (
	"encoding/json"

	"masarify/internal/core"
)

// ExportSnapshot renders the complete state as an indented JSON backup.
func ExportSnapshot(state core.AppState) (string, error) {
	b, err := json.MarshalIndent(normalize(state), "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ImportSnapshot validates a backup and builds the state it describes.
// Both transactions and categories must be JSON arrays; nothing is applied
// otherwise. A successful import unlocks the application. Elements that do
// not decode are skipped and counted in Dropped.
func ImportSnapshot(raw string) (core.AppState, Dropped, error) {
	fields, err := decodeObject([]byte(raw))
	if err != nil {
		return core.AppState{}, Dropped{}, &ImportError{Reason: "not a JSON object", Err: err}
	}
	if v, ok := fields["transactions"]; !ok || !isArray(v) {
		return core.AppState{}, Dropped{}, &ImportError{Reason: "transactions must be a list"}
	}
	if v, ok := fields["categories"]; !ok || !isArray(v) {
		return core.AppState{}, Dropped{}, &ImportError{Reason: "categories must be a list"}
	}

	state, dropped := merge(core.DefaultState(), fields)
	state.IsAuthenticated = true
	return state, dropped, nil
}

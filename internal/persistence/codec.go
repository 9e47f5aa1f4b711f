// Package persistence round-trips the application state through a durable
// string store and guards the mutations that would break referential rules.
package persistence

import (
	"bytes"
	"encoding/json"

	"masarify/internal/core"
)

// Dropped counts list elements that were skipped because they did not decode,
// for example a transaction whose id is a number.
type Dropped struct {
	Transactions int
	Categories   int
	Accounts     int
}

func (d Dropped) Total() int {
	return d.Transactions + d.Categories + d.Accounts
}

// Load rebuilds the state from a stored document. An absent or unparsable
// document yields the default state; otherwise every field present in the
// document replaces the matching default. The result is never authenticated.
func Load(raw string, ok bool) core.AppState {
	state, _ := Decode(raw, ok)
	return state
}

// Decode is Load that also reports the elements it had to skip.
func Decode(raw string, ok bool) (core.AppState, Dropped) {
	state := core.DefaultState()
	if !ok {
		return state, Dropped{}
	}
	fields, err := decodeObject([]byte(raw))
	if err != nil {
		return state, Dropped{}
	}
	state, dropped := merge(state, fields)
	state.IsAuthenticated = false
	return state, dropped
}

func decodeObject(data []byte) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, ErrInvalidStructure // literal null
	}
	return fields, nil
}

func present(fields map[string]json.RawMessage, key string) (json.RawMessage, bool) {
	v, ok := fields[key]
	if !ok || isNull(v) {
		return nil, false
	}
	return v, true
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

func isArray(v json.RawMessage) bool {
	v = bytes.TrimSpace(v)
	return len(v) > 0 && v[0] == '['
}

func isObject(v json.RawMessage) bool {
	v = bytes.TrimSpace(v)
	return len(v) > 0 && v[0] == '{'
}

// decodeList decodes a JSON array element by element, dropping elements that
// do not fit T and counting them. ok is false when v is not an array at all.
func decodeList[T any](v json.RawMessage) (out []T, dropped int, ok bool) {
	var items []json.RawMessage
	if !isArray(v) || json.Unmarshal(v, &items) != nil {
		return nil, 0, false
	}
	out = make([]T, 0, len(items))
	for _, item := range items {
		var elem T
		if err := json.Unmarshal(item, &elem); err != nil {
			dropped++
			continue
		}
		out = append(out, elem)
	}
	return out, dropped, true
}

// merge overlays the decoded fields onto base.
func merge(base core.AppState, fields map[string]json.RawMessage) (core.AppState, Dropped) {
	var dropped Dropped
	if v, ok := present(fields, "transactions"); ok {
		if txs, n, ok := decodeList[core.Transaction](v); ok {
			base.Transactions = txs
			dropped.Transactions = n
		}
	}
	if v, ok := present(fields, "categories"); ok {
		if cats, n, ok := decodeList[core.Category](v); ok {
			base.Categories = cats
			dropped.Categories = n
		}
	}
	if v, ok := present(fields, "accounts"); ok {
		if accounts, n, ok := decodeList[core.Account](v); ok {
			base.Accounts = accounts
			dropped.Accounts = n
		}
	}
	if v, ok := present(fields, "budget"); ok && isObject(v) {
		// Decoding over the default keeps limits missing from older backups.
		budget := base.Budget
		if json.Unmarshal(v, &budget) == nil {
			base.Budget = budget
		}
	}
	if v, ok := present(fields, "language"); ok {
		var lang core.Language
		if json.Unmarshal(v, &lang) == nil && lang.Valid() {
			base.Language = lang
		}
	}
	if v, ok := present(fields, "currency"); ok {
		base.Currency = decodeCurrency(v)
	}
	if v, ok := present(fields, "isAuthenticated"); ok {
		var auth bool
		if json.Unmarshal(v, &auth) == nil {
			base.IsAuthenticated = auth
		}
	}
	if v, ok := present(fields, "pin"); ok {
		var pin string
		if json.Unmarshal(v, &pin) == nil {
			base.Pin = &pin
		}
	}
	return base, dropped
}

// decodeCurrency accepts only a structured currency record; bare codes and
// other shapes fall back to the default currency.
func decodeCurrency(v json.RawMessage) core.Currency {
	if !isObject(v) {
		return core.DefaultCurrency()
	}
	var c core.Currency
	if err := json.Unmarshal(v, &c); err != nil || c.Code == "" {
		return core.DefaultCurrency()
	}
	return c
}

// Encode serializes the full state in its compact stored form.
func Encode(state core.AppState) (string, error) {
	b, err := json.Marshal(normalize(state))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// normalize replaces nil collections so they encode as [] rather than null.
func normalize(state core.AppState) core.AppState {
	if state.Transactions == nil {
		state.Transactions = []core.Transaction{}
	}
	if state.Categories == nil {
		state.Categories = []core.Category{}
	}
	if state.Accounts == nil {
		state.Accounts = []core.Account{}
	}
	return state
}

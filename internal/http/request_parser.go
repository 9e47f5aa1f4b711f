package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	maxJSONBody   = 1 << 20
	maxImportBody = 32 << 20 // backups may carry receipt images
)

// DecodeJSON reads a JSON object of at most limit bytes into v.
func DecodeJSON(w http.ResponseWriter, r *http.Request, limit int64, v any) error {
	body := http.MaxBytesReader(w, r.Body, limit)
	dec := json.NewDecoder(body)
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit)
		}
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("malformed JSON: %w", err)
	}
	return nil
}

// ReadBody returns the raw request body, bounded by limit.
func ReadBody(w http.ResponseWriter, r *http.Request, limit int64) (string, error) {
	b, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit)
		}
		return "", err
	}
	return string(b), nil
}

// ParseMonth reads a YYYY-MM query value as the first instant of that month
// in loc. ok is false when the parameter is absent.
func ParseMonth(query url.Values, key string, loc *time.Location) (t time.Time, ok bool, err error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return time.Time{}, false, nil
	}
	t, err = time.ParseInLocation("2006-01", v, loc)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("invalid %s %q: expected YYYY-MM", key, v)
	}
	return t, true, nil
}

// ParseLimit reads a positive integer query value, returning def when absent.
func ParseLimit(query url.Values, key string, def int) (int, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive integer", key, v)
	}
	return n, nil
}

// sanitizeInput trims s and removes control characters other than tab and newlines.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}

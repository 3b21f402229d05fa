package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"scrumtrack/internal/domain"
)

const (
	dateLayout   = "2006-01-02"
	maxBodyBytes = 1 << 20
)

// decodeJSON reads a single JSON object from the request body. Malformed
// bodies and unknown fields are reported as invalid input.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", domain.ErrInvalid)
		}
		return fmt.Errorf("%w: malformed JSON body: %v", domain.ErrInvalid, err)
	}
	return nil
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s is required", domain.ErrInvalid, field)
	}
	return nil
}

// parseTime accepts RFC 3339 timestamps or YYYY-MM-DD dates, the latter as
// midnight in loc.
func parseTime(field, s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(dateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be YYYY-MM-DD or RFC 3339, got %q", domain.ErrInvalid, field, s)
	}
	return t, nil
}

// parseUpperBound is parseTime, except that a bare date means the end of
// that day so that records on the last day are included.
func parseUpperBound(field, s string, loc *time.Location) (time.Time, error) {
	t, err := parseTime(field, s, loc)
	if err != nil {
		return time.Time{}, err
	}
	if _, dateErr := time.Parse(dateLayout, strings.TrimSpace(s)); dateErr == nil {
		t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return t, nil
}

func optionalTime(field string, s *string, loc *time.Location) (*time.Time, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	t, err := parseTime(field, *s, loc)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// queryRange reads the from/to query parameters. Missing parameters yield
// nil bounds.
func queryRange(r *http.Request, loc *time.Location) (from, to *time.Time, err error) {
	q := r.URL.Query()
	if s := q.Get("from"); s != "" {
		t, err := parseTime("from", s, loc)
		if err != nil {
			return nil, nil, err
		}
		from = &t
	}
	if s := q.Get("to"); s != "" {
		t, err := parseUpperBound("to", s, loc)
		if err != nil {
			return nil, nil, err
		}
		to = &t
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, nil, fmt.Errorf("%w: to is before from", domain.ErrInvalid)
	}
	return from, to, nil
}

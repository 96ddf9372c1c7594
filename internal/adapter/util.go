package adapter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// unknownPostedAt is recorded when a listing carries no usable posting date.
// It is fixed so repeated imports of the same payload produce identical records.
var unknownPostedAt = time.Unix(0, 0).UTC()

var postedAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parsePostedAt reads an ISO-8601 timestamp. Values without a zone are UTC.
func parsePostedAt(raw *string) time.Time {
	if raw == nil {
		return unknownPostedAt
	}
	v := strings.TrimSpace(*raw)
	for _, layout := range postedAtLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC()
		}
	}
	return unknownPostedAt
}

// flexString accepts a JSON string or number. Providers are not consistent
// about quoting numeric fields.
type flexString struct {
	value string
	set   bool
}

func (s *flexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		s.value, s.set = v, true
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", b)
	}
	s.value, s.set = n.String(), true
	return nil
}

// optionalInt keeps a JSON integer and reads anything else (a quoted number,
// a fraction, an object) as absent rather than failing the payload.
type optionalInt struct {
	value *int
}

func (o *optionalInt) UnmarshalJSON(b []byte) error {
	o.value = nil
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return nil
	}
	v, err := strconv.Atoi(n.String())
	if err != nil {
		return nil
	}
	o.value = &v
	return nil
}

// strictTrue is set only by a literal JSON true. "true", 1 and other values
// leave it false.
type strictTrue bool

func (t *strictTrue) UnmarshalJSON(b []byte) error {
	*t = strictTrue(bytes.Equal(bytes.TrimSpace(b), []byte("true")))
	return nil
}

func ptr[T any](v T) *T { return &v }

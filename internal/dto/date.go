package dto

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// dateOnlyLayout is what an HTML date input submits.
const dateOnlyLayout = "2006-01-02"

// Date is a request timestamp that accepts RFC3339 or a bare date. A bare
// date is midnight UTC.
type Date struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	raw = strings.TrimSpace(raw)

	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		d.Time = t
		return nil
	}
	t, err := time.Parse(dateOnlyLayout, raw)
	if err != nil {
		return fmt.Errorf("date %q must be RFC3339 or YYYY-MM-DD", raw)
	}
	d.Time = t.UTC()
	return nil
}

// TimePtr returns the timestamp, or nil when the field was absent.
func (d *Date) TimePtr() *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}

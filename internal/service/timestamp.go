package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"

	"releaseguard.app/guard/internal/domain"
)

// LocalTimestampLayout is the zone-less layout operators may use for window bounds.
const LocalTimestampLayout = "2006-01-02 15:04:05"

var localLayouts = []string{
	LocalTimestampLayout,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
}

// ParseTimestamp accepts RFC3339 or a zone-less local layout interpreted in loc.
func ParseTimestamp(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: timestamp is required", domain.ErrInvalidRequest)
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: invalid timestamp %q, use RFC3339 or %q", domain.ErrInvalidRequest, raw, LocalTimestampLayout)
}

// ParseNaturalTimestamp is ParseTimestamp that also understands English phrases
// such as "tomorrow 18:00" or "in 2 hours", relative to now in loc.
func ParseNaturalTimestamp(raw string, loc *time.Location, now time.Time) (time.Time, error) {
	if t, err := ParseTimestamp(raw, loc); err == nil {
		return t, nil
	}

	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)

	r, err := w.Parse(raw, now.In(loc))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: parsing %q: %w", domain.ErrInvalidRequest, raw, err)
	}
	if r == nil {
		return time.Time{}, fmt.Errorf("%w: could not understand time %q", domain.ErrInvalidRequest, raw)
	}
	return r.Time, nil
}

// Package temporal converts between engine-native timestamps and their ISO-8601 text form.
//
// Values leaving the store are always rendered as text. Values entering the store are parsed
// back into time.Time only for keys registered as temporal, unless speculative parsing is on,
// in which case every string that parses as a timestamp is converted.
package temporal

import (
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
)

// Layouts used when rendering engine-native values.
const (
	LayoutDateTime      = time.RFC3339Nano
	LayoutLocalDateTime = "2006-01-02T15:04:05.999999999"
	LayoutDate          = "2006-01-02"
	LayoutLocalTime     = "15:04:05.999999999"
	LayoutTime          = "15:04:05.999999999Z07:00"
)

// parseLayouts are tried in order when reading text back.
var parseLayouts = []string{
	time.RFC3339Nano,
	LayoutLocalDateTime,
}

// Normalizer applies the inbound conversion policy.
type Normalizer struct {
	temporalKey func(key string) bool
	speculative bool
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithSpeculative makes Inbound parse every string property that looks like a timestamp.
func WithSpeculative(on bool) Option {
	return func(n *Normalizer) {
		n.speculative = on
	}
}

// New returns a Normalizer that treats keys accepted by temporalKey as timestamps.
func New(temporalKey func(key string) bool, opts ...Option) *Normalizer {
	n := &Normalizer{temporalKey: temporalKey}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Speculative reports whether speculative parsing is on.
func (n *Normalizer) Speculative() bool {
	return n.speculative
}

// Inbound returns a copy of props with timestamp text converted to time.Time.
// Text that fails to parse is kept as is.
func (n *Normalizer) Inbound(props map[string]any) map[string]any {
	out := make(map[string]any, len(props))
	for k, v := range props {
		s, ok := v.(string)
		if !ok || !(n.speculative || (n.temporalKey != nil && n.temporalKey(k))) {
			out[k] = v
			continue
		}
		if t, ok := Parse(s); ok {
			out[k] = t
			continue
		}
		out[k] = v
	}
	return out
}

// Outbound returns a copy of props with every native temporal value rendered as text.
func Outbound(props map[string]any) map[string]any {
	out := make(map[string]any, len(props))
	for k, v := range props {
		out[k] = Value(v)
	}
	return out
}

// Value renders native temporal values as text, descending into lists and maps.
// Other values are returned unchanged.
func Value(v any) any {
	switch x := v.(type) {
	case time.Time:
		return x.Format(LayoutDateTime)
	case dbtype.LocalDateTime:
		return time.Time(x).Format(LayoutLocalDateTime)
	case dbtype.Date:
		return time.Time(x).Format(LayoutDate)
	case dbtype.LocalTime:
		return time.Time(x).Format(LayoutLocalTime)
	case dbtype.Time:
		return time.Time(x).Format(LayoutTime)
	case dbtype.Duration:
		return x.String()
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = Value(e)
		}
		return out
	case map[string]any:
		return Outbound(x)
	}
	return v
}

// Text renders a single property as text: timestamps in ISO-8601, strings as is, anything else as "".
func Text(v any) string {
	s, _ := Value(v).(string)
	return s
}

// Parse reads ISO-8601 timestamp text. Text without a zone offset is taken as UTC.
func Parse(s string) (time.Time, bool) {
	for _, layout := range parseLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

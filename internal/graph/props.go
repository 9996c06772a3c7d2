package graph

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Props is a property map whose JSON form keeps integers and floats apart:
// floats always carry a fraction or exponent and decode back to float64,
// integers decode to int64.
type Props map[string]any

// MarshalJSON implements json.Marshaler.
func (p Props) MarshalJSON() ([]byte, error) {
	if p == nil {
		return []byte("{}"), nil
	}
	out := make(map[string]any, len(p))
	for k, v := range p {
		ev, err := encodeValue(v)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", k, err)
		}
		out[k] = ev
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Props) UnmarshalJSON(data []byte) error {
	m, err := DecodeProps(data)
	if err != nil {
		return err
	}
	*p = m
	return nil
}

// EncodeProps encodes a property map as JSON.
func EncodeProps(m map[string]any) ([]byte, error) {
	return Props(m).MarshalJSON()
}

// DecodeProps decodes a JSON object into a property map.
func DecodeProps(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return map[string]any{}, nil
	}
	for k, v := range raw {
		dv, err := decodeValue(v)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", k, err)
		}
		raw[k] = dv
	}
	return raw, nil
}

func encodeValue(v any) (any, error) {
	switch x := v.(type) {
	case float64:
		return formatFloat(x)
	case float32:
		return formatFloat(float64(x))
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			ev, err := encodeValue(e)
			if err != nil {
				return nil, err
			}
			out[i] = ev
		}
		return out, nil
	case []float64:
		out := make([]any, len(x))
		for i, e := range x {
			ev, err := formatFloat(e)
			if err != nil {
				return nil, err
			}
			out[i] = ev
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			ev, err := encodeValue(e)
			if err != nil {
				return nil, err
			}
			out[k] = ev
		}
		return out, nil
	}
	return v, nil
}

// formatFloat renders f the way a float literal is conventionally written:
// positional with at least one fractional digit, exponent form for very large or small magnitudes.
func formatFloat(f float64) (json.Number, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", errors.New("unsupported float value")
	}
	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return json.Number(strconv.FormatFloat(f, 'e', -1, 64)), nil
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return json.Number(s), nil
}

func decodeValue(v any) (any, error) {
	switch x := v.(type) {
	case json.Number:
		s := x.String()
		if !strings.ContainsAny(s, ".eE") {
			if n, err := strconv.ParseInt(s, 10, 64); err == nil {
				return n, nil
			}
		}
		return strconv.ParseFloat(s, 64)
	case []any:
		for i, e := range x {
			dv, err := decodeValue(e)
			if err != nil {
				return nil, err
			}
			x[i] = dv
		}
		return x, nil
	case map[string]any:
		for k, e := range x {
			dv, err := decodeValue(e)
			if err != nil {
				return nil, err
			}
			x[k] = dv
		}
		return x, nil
	}
	return v, nil
}

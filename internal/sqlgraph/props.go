package sqlgraph

import (
	"time"

	"github.com/starford/offcuts/internal/graph"
)

// timeTag marks a timestamp inside the JSON property column: {"$datetime": "<RFC 3339>"}.
const timeTag = "$datetime"

func encodeProps(m map[string]any) (string, error) {
	tagged := make(map[string]any, len(m))
	for k, v := range m {
		tagged[k] = tagTime(v)
	}
	data, err := graph.EncodeProps(tagged)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeProps(s string) (map[string]any, error) {
	m, err := graph.DecodeProps([]byte(s))
	if err != nil {
		return nil, err
	}
	for k, v := range m {
		m[k] = untagTime(v)
	}
	return m, nil
}

func tagTime(v any) any {
	switch x := v.(type) {
	case time.Time:
		return map[string]any{timeTag: x.UTC().Format(time.RFC3339Nano)}
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = tagTime(e)
		}
		return out
	}
	return v
}

func untagTime(v any) any {
	switch x := v.(type) {
	case map[string]any:
		if s, ok := x[timeTag].(string); ok && len(x) == 1 {
			if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
				return t
			}
		}
	case []any:
		for i, e := range x {
			x[i] = untagTime(e)
		}
	}
	return v
}

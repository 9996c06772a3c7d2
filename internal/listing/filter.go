// Package listing holds the announcement filter and turns it into an engine-neutral predicate tree.
package listing

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/starford/offcuts/internal/apperr"
)

// Range is an inclusive numeric bound pair. Max == 0 means unbounded above.
type Range[T int64 | float64] struct {
	Min T
	Max T
}

// Filter selects announcements. The zero value matches every announcement.
type Filter struct {
	Name    string
	Master  string
	Address string

	Width  Range[float64]
	Height Range[float64]
	Length Range[float64]
	Weight Range[float64]
	Amount Range[int64]
	Price  Range[float64]
}

// QueryParams lists every parameter ParseQuery understands.
var QueryParams = []string{
	"name", "master", "address",
	"width_min", "width_max",
	"height_min", "height_max",
	"length_min", "length_max",
	"weight_min", "weight_max",
	"amount_min", "amount_max",
	"price_min", "price_max",
}

// ParseQuery reads a Filter from query parameters such as name, master, address,
// price_min and price_max. Missing or empty parameters keep their defaults.
func ParseQuery(q url.Values) (Filter, error) {
	f := Filter{
		Name:    strings.TrimSpace(q.Get("name")),
		Master:  strings.TrimSpace(q.Get("master")),
		Address: strings.TrimSpace(q.Get("address")),
	}

	floats := []struct {
		key string
		dst *Range[float64]
	}{
		{"width", &f.Width},
		{"height", &f.Height},
		{"length", &f.Length},
		{"weight", &f.Weight},
		{"price", &f.Price},
	}
	for _, fl := range floats {
		if err := parseFloat(q, fl.key+"_min", &fl.dst.Min); err != nil {
			return Filter{}, err
		}
		if err := parseFloat(q, fl.key+"_max", &fl.dst.Max); err != nil {
			return Filter{}, err
		}
	}
	if err := parseInt(q, "amount_min", &f.Amount.Min); err != nil {
		return Filter{}, err
	}
	if err := parseInt(q, "amount_max", &f.Amount.Max); err != nil {
		return Filter{}, err
	}
	return f, nil
}

func parseFloat(q url.Values, key string, dst *float64) error {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("%w: %s must be a number", apperr.ErrMalformedFilter, key)
	}
	*dst = v
	return nil
}

func parseInt(q url.Values, key string, dst *int64) error {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %s must be an integer", apperr.ErrMalformedFilter, key)
	}
	*dst = v
	return nil
}

package cart

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// SchemaVersion is the version written by this package.
const SchemaVersion = 2

type document struct {
	Version int    `json:"version"`
	Items   []Line `json:"items"`
}

func encode(lines []Line) ([]byte, error) {
	if lines == nil {
		lines = []Line{}
	}
	return json.Marshal(document{Version: SchemaVersion, Items: lines})
}

// decode parses a stored cart. Documents of the current version are read
// as is; anything else is migrated and reported with migrated == true.
// Malformed input yields an empty cart.
func decode(data []byte) (lines []Line, migrated bool) {
	var current document
	if err := json.Unmarshal(data, &current); err == nil && current.Version == SchemaVersion {
		return sanitize(current.Items), false
	}
	return migrate(data), true
}

// sanitize trims ids, drops empty ones and fixes non-positive quantities.
func sanitize(items []Line) []Line {
	out := make([]Line, 0, len(items))
	for _, it := range items {
		it.ProductID = strings.TrimSpace(it.ProductID)
		if it.ProductID == "" {
			continue
		}
		if it.Quantity <= 0 {
			it.Quantity = 1
		}
		it.Quantity = clampQuantity(it.Quantity)
		it.Variant = normalizeVariant(it.Variant)
		out = append(out, it)
	}
	return out
}

// migrate accepts the legacy shapes: a bare list, or an object holding the
// list under "items", "cart" or "lines".
func migrate(data []byte) []Line {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return []Line{}
	}

	var entries []any
	switch v := raw.(type) {
	case []any:
		entries = v
	case map[string]any:
		for _, field := range []string{"items", "cart", "lines"} {
			if list, ok := v[field].([]any); ok {
				entries = list
				break
			}
		}
	}

	lines := make([]Line, 0, len(entries))
	for _, e := range entries {
		if line, ok := legacyLine(e); ok {
			lines = append(lines, line)
		}
	}
	return lines
}

func legacyLine(e any) (Line, bool) {
	m, ok := e.(map[string]any)
	if !ok {
		return Line{}, false
	}

	var id string
	for _, field := range []string{"id", "productId", "pid"} {
		if v, present := m[field]; present && v != nil {
			id = strings.TrimSpace(scalarString(v))
			break
		}
	}
	if id == "" {
		return Line{}, false
	}

	qty := 1
	for _, field := range []string{"qty", "quantity", "count"} {
		if v, present := m[field]; present && v != nil {
			if n, ok := positiveInt(v); ok {
				qty = n
			}
			break
		}
	}

	var variant *Variant
	if vm, ok := m["variant"].(map[string]any); ok {
		variant = normalizeVariant(&Variant{Size: scalarString(vm["size"]), Color: scalarString(vm["color"])})
	}
	return Line{ProductID: id, Quantity: qty, Variant: variant}, true
}

func scalarString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case json.Number:
		return s.String()
	case bool:
		return strconv.FormatBool(s)
	default:
		return ""
	}
}

// positiveInt reads whole quantities from numbers or numeric strings.
func positiveInt(v any) (int, bool) {
	var f float64
	switch n := v.(type) {
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || f < 1 {
		return 0, false
	}
	if f > MaxQuantity {
		return MaxQuantity, true
	}
	return int(f), true
}

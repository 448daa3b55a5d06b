package cart

import (
	"math"
	"strings"
)

// MaxQuantity is the largest quantity a line can hold; larger values are capped.
const MaxQuantity = math.MaxInt32

// Variant distinguishes lines of the same product. An absent field equals "".
type Variant struct {
	Size  string `json:"size,omitempty"`
	Color string `json:"color,omitempty"`
}

// Line is one product in the cart. Prices are never stored.
type Line struct {
	ProductID string   `json:"id"`
	Quantity  int      `json:"qty"`
	Variant   *Variant `json:"variant,omitempty"`
}

// normalizeVariant trims both fields and collapses an empty variant to nil.
func normalizeVariant(v *Variant) *Variant {
	if v == nil {
		return nil
	}
	out := Variant{Size: strings.TrimSpace(v.Size), Color: strings.TrimSpace(v.Color)}
	if out.Size == "" && out.Color == "" {
		return nil
	}
	return &out
}

func sameVariant(a, b *Variant) bool {
	var av, bv Variant
	if a != nil {
		av = *a
	}
	if b != nil {
		bv = *b
	}
	return av == bv
}

func (l Line) matches(productID string, v *Variant) bool {
	return l.ProductID == productID && sameVariant(l.Variant, v)
}

func cloneLines(lines []Line) []Line {
	out := make([]Line, len(lines))
	for i, l := range lines {
		if l.Variant != nil {
			v := *l.Variant
			l.Variant = &v
		}
		out[i] = l
	}
	return out
}

// clampQuantity caps q at MaxQuantity.
func clampQuantity(q int) int {
	if q > MaxQuantity {
		return MaxQuantity
	}
	return q
}

// addQuantity sums two positive quantities without overflowing MaxQuantity.
func addQuantity(a, b int) int {
	if b > MaxQuantity-a {
		return MaxQuantity
	}
	return a + b
}

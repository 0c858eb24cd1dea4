// Package units holds the unit conversion table used when pricing and
// aggregating bill lines.
package units

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrUnsupportedConversion is returned when two units cannot be converted.
var ErrUnsupportedConversion = errors.New("units: unsupported conversion")

// Dimension groups units that can be converted into one another.
type Dimension string

const (
	Weight Dimension = "weight"
	Count  Dimension = "count"
)

// Canonical unit names of the default table.
const (
	Kilogram = "kg"
	Gram     = "gram"
	Piece    = "piece"
)

// Definition describes a single unit. Factor is the number of base units of
// the dimension one unit of this kind represents (kg = 1, gram = 0.001).
type Definition struct {
	Name      string
	Dimension Dimension
	Factor    decimal.Decimal
}

// Table is an immutable set of unit definitions. The zero value knows no
// units; use Default or NewTable.
type Table struct {
	defs  map[string]Definition
	order []string
}

// Default returns the table with kg, gram and piece.
func Default() Table {
	t, _ := NewTable(
		Definition{Name: Kilogram, Dimension: Weight, Factor: decimal.NewFromInt(1)},
		Definition{Name: Gram, Dimension: Weight, Factor: decimal.New(1, -3)},
		Definition{Name: Piece, Dimension: Count, Factor: decimal.NewFromInt(1)},
	)
	return t
}

// NewTable builds a table from the given definitions. Names are matched
// case-insensitively and every factor must be positive.
func NewTable(defs ...Definition) (Table, error) {
	t := Table{defs: make(map[string]Definition, len(defs))}
	for _, d := range defs {
		key := normalize(d.Name)
		if key == "" {
			return Table{}, errors.New("units: definition without name")
		}
		if !d.Factor.IsPositive() {
			return Table{}, fmt.Errorf("units: factor for %q must be positive", d.Name)
		}
		if _, dup := t.defs[key]; dup {
			return Table{}, fmt.Errorf("units: duplicate definition for %q", d.Name)
		}
		d.Name = key
		t.defs[key] = d
		t.order = append(t.order, key)
	}
	return t, nil
}

// Lookup returns the definition of unit.
func (t Table) Lookup(unit string) (Definition, bool) {
	d, ok := t.defs[normalize(unit)]
	return d, ok
}

// Convert converts qty expressed in from into to. Both units need a known
// factor; a known unit converts to itself, otherwise they must share a
// dimension.
func (t Table) Convert(qty decimal.Decimal, from, to string) (decimal.Decimal, error) {
	src, ok := t.Lookup(from)
	if !ok {
		return decimal.Zero, fmt.Errorf("unknown unit %q: %w", from, ErrUnsupportedConversion)
	}
	dst, ok := t.Lookup(to)
	if !ok {
		return decimal.Zero, fmt.Errorf("unknown unit %q: %w", to, ErrUnsupportedConversion)
	}
	if src.Name == dst.Name {
		return qty, nil
	}
	if src.Dimension != dst.Dimension || src.Dimension == Count {
		return decimal.Zero, fmt.Errorf("%s to %s: %w", src.Name, dst.Name, ErrUnsupportedConversion)
	}
	return qty.Mul(src.Factor).Div(dst.Factor), nil
}

// AreRelated reports whether a quantity in a can be expressed in b.
func (t Table) AreRelated(a, b string) bool {
	if SameUnit(a, b) {
		return true
	}
	_, err := t.Convert(decimal.NewFromInt(1), a, b)
	return err == nil
}

// RelatedUnits returns unit followed by every other unit it converts to.
// Count units and unknown units are related only to themselves.
func (t Table) RelatedUnits(unit string) []string {
	out := []string{unit}
	def, ok := t.Lookup(unit)
	if !ok || def.Dimension == Count {
		return out
	}
	for _, name := range t.order {
		if name == def.Name {
			continue
		}
		if t.defs[name].Dimension == def.Dimension {
			out = append(out, name)
		}
	}
	return out
}

// AvailableUnits expands the units a product is priced in with every related
// unit, so an operator may pick gram for a product priced only per kg.
// Duplicates are dropped and first-seen order is kept.
func (t Table) AvailableUnits(priced []string) []string {
	seen := make(map[string]struct{}, len(priced))
	out := make([]string, 0, len(priced))
	for _, u := range priced {
		for _, r := range t.RelatedUnits(u) {
			key := normalize(r)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, r)
		}
	}
	return out
}

// SameUnit compares unit names the way the table does.
func SameUnit(a, b string) bool {
	return normalize(a) == normalize(b)
}

func normalize(unit string) string {
	return strings.ToLower(strings.TrimSpace(unit))
}

// Package constituent defines the value type for a single chemical constituent
// (ion/electrolyte) and its derived transport quantities.
//
// A Constituent carries per-charge-state mobility and pKa data. Records are
// immutable after construction and identified by their canonical (uppercase)
// name. All quantities are plain SI: mobilities in m²/(V·s), diffusivity in
// m²/s.
package constituent

import (
	"fmt"
	"slices"
	"strings"
)

// Physical constants for the Nernst-Einstein relation.
const (
	gasConstant   = 8.314 // J/(mol·K)
	referenceTemp = 300.0 // K
	faraday       = 96485.0
)

// minChargeStates is the minimum number of charge states per sign covered by
// the derived vectors. Mobilities and Pkas always span at least ±1..±3.
const minChargeStates = 3

// InvalidRecordError reports a structurally malformed record definition:
// mismatched array lengths, a declared charge-state count that disagrees with
// the data, or an unusable name.
type InvalidRecordError struct {
	Name   string
	Reason string
}

func (e *InvalidRecordError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("invalid constituent: %s", e.Reason)
	}
	return fmt.Sprintf("invalid constituent %s: %s", e.Name, e.Reason)
}

// Constituent is one named species with per-charge-state mobility and pKa
// data. The zero value is not usable; construct records with New or decode
// them from a stored document.
type Constituent struct {
	id int64

	name string

	// uNeg/pkaNeg index 0 corresponds to charge -1, index i to charge -(i+1).
	// uPos/pkaPos index 0 corresponds to charge +1, index i to charge +(i+1).
	uNeg   []float64
	uPos   []float64
	pkaNeg []float64
	pkaPos []float64
}

// New constructs a validated Constituent. The name is canonicalized to upper
// case; charge-state counts are inferred from the slice lengths. The mobility
// and pKa slices for each sign must have equal length.
func New(name string, uNeg, uPos, pkaNeg, pkaPos []float64) (Constituent, error) {
	c := Constituent{
		name:   strings.ToUpper(name),
		uNeg:   slices.Clone(uNeg),
		uPos:   slices.Clone(uPos),
		pkaNeg: slices.Clone(pkaNeg),
		pkaPos: slices.Clone(pkaPos),
	}
	if err := c.validate(); err != nil {
		return Constituent{}, err
	}
	return c, nil
}

func (c *Constituent) validate() error {
	if c.name == "" {
		return &InvalidRecordError{Reason: "name must not be empty"}
	}
	if strings.ContainsFunc(c.name, isSpace) {
		return &InvalidRecordError{Name: c.name, Reason: "name must not contain whitespace"}
	}
	if len(c.uNeg) != len(c.pkaNeg) {
		return &InvalidRecordError{
			Name:   c.name,
			Reason: fmt.Sprintf("len(pKaNeg)=%d != len(uNeg)=%d", len(c.pkaNeg), len(c.uNeg)),
		}
	}
	if len(c.uPos) != len(c.pkaPos) {
		return &InvalidRecordError{
			Name:   c.name,
			Reason: fmt.Sprintf("len(pKaPos)=%d != len(uPos)=%d", len(c.pkaPos), len(c.uPos)),
		}
	}
	return nil
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

// ID returns the record's numeric dataset identifier, or 0 if it has none.
// Only shipped dataset entries carry IDs; user-defined records do not.
func (c Constituent) ID() int64 { return c.id }

// Name returns the canonical (uppercase) name.
func (c Constituent) Name() string { return c.name }

// NegCount returns the number of characterized negative charge states.
func (c Constituent) NegCount() int { return len(c.uNeg) }

// PosCount returns the number of characterized positive charge states.
func (c Constituent) PosCount() int { return len(c.uPos) }

// UNeg returns the mobilities for charges -1, -2, ... -NegCount.
func (c Constituent) UNeg() []float64 { return slices.Clone(c.uNeg) }

// UPos returns the mobilities for charges +1, +2, ... +PosCount.
func (c Constituent) UPos() []float64 { return slices.Clone(c.uPos) }

// PKaNeg returns the pKas for charges -1, -2, ... -NegCount.
func (c Constituent) PKaNeg() []float64 { return slices.Clone(c.pkaNeg) }

// PKaPos returns the pKas for charges +1, +2, ... +PosCount.
func (c Constituent) PKaPos() []float64 { return slices.Clone(c.pkaPos) }

// chargeSpan is the per-sign width of the derived vectors.
func (c Constituent) chargeSpan() int {
	return max(minChargeStates, len(c.uNeg), len(c.uPos))
}

// Mobilities returns the full mobility vector ordered from the highest
// positive charge down to the most negative charge:
//
//	[+n, ..., +2, +1, -1, -2, ..., -n]   with n = max(3, PosCount, NegCount)
//
// Charge states beyond the characterized counts are zero. The result always
// has even length >= 6.
func (c Constituent) Mobilities() []float64 {
	n := c.chargeSpan()
	ret := make([]float64, 0, 2*n)
	for i := n; i > len(c.uPos); i-- {
		ret = append(ret, 0)
	}
	for i := len(c.uPos) - 1; i >= 0; i-- {
		ret = append(ret, c.uPos[i])
	}
	ret = append(ret, c.uNeg...)
	for i := len(c.uNeg); i < n; i++ {
		ret = append(ret, 0)
	}
	return ret
}

// Pkas returns the full pKa vector in the same charge order as Mobilities,
// zero-padded to the same length.
func (c Constituent) Pkas() []float64 {
	n := c.chargeSpan()
	ret := make([]float64, 0, 2*n)
	for i := n; i > len(c.pkaPos); i-- {
		ret = append(ret, 0)
	}
	for i := len(c.pkaPos) - 1; i >= 0; i-- {
		ret = append(ret, c.pkaPos[i])
	}
	ret = append(ret, c.pkaNeg...)
	for i := len(c.pkaNeg); i < n; i++ {
		ret = append(ret, 0)
	}
	return ret
}

// Diffusivity derives the scalar diffusion coefficient from the ±1 mobilities
// via the Nernst-Einstein relation at 300 K:
//
//	D = max(u(+1), u(-1)) · R·T/F
//
// A missing ±1 mobility counts as zero, so a record with no ±1 data yields 0.
// The result is always finite; this method never returns NaN and never fails.
func (c Constituent) Diffusivity() float64 {
	var u float64
	if len(c.uPos) > 0 {
		u = c.uPos[0]
	}
	if len(c.uNeg) > 0 && c.uNeg[0] > u {
		u = c.uNeg[0]
	}
	return u * gasConstant * referenceTemp / faraday
}

// Equal reports whether the two records hold identical data. Identity is
// case-insensitive because names are canonicalized at construction.
func (c Constituent) Equal(other Constituent) bool {
	return c.id == other.id &&
		c.name == other.name &&
		slices.Equal(c.uNeg, other.uNeg) &&
		slices.Equal(c.uPos, other.uPos) &&
		slices.Equal(c.pkaNeg, other.pkaNeg) &&
		slices.Equal(c.pkaPos, other.pkaPos)
}

// Canonical normalizes a lookup name the same way construction does.
func Canonical(name string) string { return strings.ToUpper(name) }

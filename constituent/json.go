package constituent

import (
	"encoding/json"
	"fmt"
	"strings"
)

// constituentJSON is the stored wire form of a record. Field names follow the
// constituents.json convention used by the shipped dataset and by
// electroMicroTransport case setups.
type constituentJSON struct {
	ID       *int64    `json:"id,omitempty"`
	Name     string    `json:"name"`
	UNeg     []float64 `json:"uNeg"`     // charges -1, -2, ... -negCount
	UPos     []float64 `json:"uPos"`     // charges +1, +2, ... +posCount
	PKaNeg   []float64 `json:"pKaNeg"`   // parallel to uNeg
	PKaPos   []float64 `json:"pKaPos"`   // parallel to uPos
	NegCount *int      `json:"negCount"` // optional, must match len(uNeg) when set
	PosCount *int      `json:"posCount"` // optional, must match len(uPos) when set
}

// MarshalJSON encodes the record in the stored document form, with explicit
// charge-state counts.
func (c Constituent) MarshalJSON() ([]byte, error) {
	cj := constituentJSON{
		Name:     c.name,
		UNeg:     c.uNeg,
		UPos:     c.uPos,
		PKaNeg:   c.pkaNeg,
		PKaPos:   c.pkaPos,
		NegCount: ptr(len(c.uNeg)),
		PosCount: ptr(len(c.uPos)),
	}
	if c.id != 0 {
		cj.ID = &c.id
	}
	return json.Marshal(cj)
}

// UnmarshalJSON decodes and validates a stored record. Declared charge-state
// counts that disagree with the array lengths are a structural error.
func (c *Constituent) UnmarshalJSON(data []byte) error {
	var cj constituentJSON
	if err := json.Unmarshal(data, &cj); err != nil {
		return err
	}
	dec, err := cj.toConstituent()
	if err != nil {
		return err
	}
	*c = dec
	return nil
}

func (cj constituentJSON) toConstituent() (Constituent, error) {
	dec, err := New(cj.Name, cj.UNeg, cj.UPos, cj.PKaNeg, cj.PKaPos)
	if err != nil {
		return Constituent{}, err
	}
	if cj.NegCount != nil && *cj.NegCount != len(cj.UNeg) {
		return Constituent{}, &InvalidRecordError{
			Name:   dec.name,
			Reason: fmt.Sprintf("negCount=%d != len(uNeg)=%d", *cj.NegCount, len(cj.UNeg)),
		}
	}
	if cj.PosCount != nil && *cj.PosCount != len(cj.UPos) {
		return Constituent{}, &InvalidRecordError{
			Name:   dec.name,
			Reason: fmt.Sprintf("posCount=%d != len(uPos)=%d", *cj.PosCount, len(cj.UPos)),
		}
	}
	if cj.ID != nil {
		dec.id = *cj.ID
	}
	return dec, nil
}

func ptr[T any](v T) *T { return &v }

// document is the on-disk shape shared by the embedded dataset, the user
// overlay file and exported backups.
type document struct {
	Constituents []json.RawMessage `json:"constituents"`
}

type decodeOptions struct {
	legacyNameFixes bool
}

// DecodeOption configures DecodeDocument.
type DecodeOption func(*decodeOptions)

// WithLegacyNameFixes enables the name rewrites needed by the shipped dataset,
// whose literature-derived entries predate the no-whitespace rule: spaces
// become underscores and the "Cl-" prefix notation becomes "CHLORO".
func WithLegacyNameFixes() DecodeOption {
	return func(o *decodeOptions) {
		o.legacyNameFixes = true
	}
}

// DecodeDocument parses a constituents document and validates every record.
func DecodeDocument(data []byte, optFns ...DecodeOption) ([]Constituent, error) {
	var opts decodeOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	out := make([]Constituent, 0, len(doc.Constituents))
	for _, raw := range doc.Constituents {
		var cj constituentJSON
		if err := json.Unmarshal(raw, &cj); err != nil {
			return nil, err
		}
		if opts.legacyNameFixes {
			cj.Name = strings.ReplaceAll(cj.Name, " ", "_")
			cj.Name = strings.ReplaceAll(cj.Name, "Cl-", "CHLORO")
		}
		c, err := cj.toConstituent()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// EncodeDocument serializes records into the stored document form. The output
// is indented so user files stay diffable and hand-editable.
func EncodeDocument(constituents []Constituent) ([]byte, error) {
	raws := make([]json.RawMessage, 0, len(constituents))
	for _, c := range constituents {
		b, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		raws = append(raws, b)
	}
	return json.MarshalIndent(document{Constituents: raws}, "", "    ")
}

// Package store holds the two constituent tables behind the database facade:
// the immutable built-in table embedded in the binary and the mutable per-user
// overlay persisted to disk.
package store

import (
	_ "embed"
	"fmt"
	"slices"
	"sync"

	"github.com/hupe1980/electrolytes/constituent"
)

//go:embed db1.json
var builtinData []byte

var (
	builtinOnce  sync.Once
	builtinTable map[string]constituent.Constituent
	builtinNames []string
)

// loadBuiltin parses the embedded dataset exactly once. A malformed dataset is
// a broken installation, not a runtime condition, so it panics.
func loadBuiltin() {
	builtinOnce.Do(func() {
		constituents, err := constituent.DecodeDocument(builtinData, constituent.WithLegacyNameFixes())
		if err != nil {
			panic(fmt.Sprintf("electrolytes: invalid embedded dataset: %v", err))
		}

		builtinTable = make(map[string]constituent.Constituent, len(constituents))
		builtinNames = make([]string, 0, len(constituents))
		for _, c := range constituents {
			if _, ok := builtinTable[c.Name()]; ok {
				panic(fmt.Sprintf("electrolytes: duplicate name in embedded dataset: %s", c.Name()))
			}
			builtinTable[c.Name()] = c
			builtinNames = append(builtinNames, c.Name())
		}
		slices.Sort(builtinNames)
	})
}

// DefaultLookup returns the built-in record for a canonical name.
func DefaultLookup(name string) (constituent.Constituent, bool) {
	loadBuiltin()
	c, ok := builtinTable[name]
	return c, ok
}

// DefaultNames returns the sorted built-in name set. The returned slice is
// shared and must not be mutated.
func DefaultNames() []string {
	loadBuiltin()
	return builtinNames
}

// DefaultLen returns the number of built-in constituents.
func DefaultLen() int {
	loadBuiltin()
	return len(builtinTable)
}

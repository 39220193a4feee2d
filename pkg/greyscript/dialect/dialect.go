// Package dialect holds the static language tables the lexer and parser are
// parameterized over: the keyword set, the native (builtin) identifier set,
// and the binary-operator precedence table.
//
// The tables are modeled as immutable lookup services rather than package
// globals so alternate dialects of the MiniScript family can be supported by
// substituting a table without touching lexer or parser logic. A dialect can
// be described in a YAML file and loaded with Load.
package dialect

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// KeywordSet reports whether an identifier-shaped lexeme is a keyword.
type KeywordSet interface {
	IsKeyword(name string) bool
}

// NativeSet reports whether an identifier names a recognized builtin.
// Identifiers classified as native are excluded from scope namespace sets.
type NativeSet interface {
	IsNative(name string) bool
}

// PrecedenceTable maps a binary operator lexeme to its precedence.
// A zero return means the lexeme is not a binary operator.
type PrecedenceTable interface {
	Precedence(op string) int
}

// Binary operator precedence levels. Power binds tightest and is the only
// right-associative operator; everything else is left-associative.
const (
	PrecedenceLowest         = 0
	PrecedenceOr             = 1
	PrecedenceAnd            = 2
	PrecedenceComparison     = 3
	PrecedenceShift          = 7
	PrecedenceAdditive       = 9
	PrecedenceMultiplicative = 10
	PrecedenceIsa            = 11
	PrecedencePower          = 12
)

// Dialect bundles the three lookup tables for one language variant.
// A Dialect is immutable after construction and safe for concurrent use.
type Dialect struct {
	Name string

	keywordsByLength map[int]map[string]bool
	maxKeywordLen    int
	natives          map[string]bool
	precedence       map[string]int
}

// Descriptor is the on-disk YAML shape of a dialect definition.
type Descriptor struct {
	Name       string         `yaml:"name"`
	Keywords   []string       `yaml:"keywords"`
	Natives    []string       `yaml:"natives"`
	Precedence map[string]int `yaml:"precedence"`
}

// New builds a Dialect from a descriptor.
func New(desc Descriptor) *Dialect {
	d := &Dialect{
		Name:             desc.Name,
		keywordsByLength: make(map[int]map[string]bool),
		natives:          make(map[string]bool, len(desc.Natives)),
		precedence:       make(map[string]int, len(desc.Precedence)),
	}

	for _, kw := range desc.Keywords {
		byLen := d.keywordsByLength[len(kw)]
		if byLen == nil {
			byLen = make(map[string]bool)
			d.keywordsByLength[len(kw)] = byLen
		}
		byLen[kw] = true
		if len(kw) > d.maxKeywordLen {
			d.maxKeywordLen = len(kw)
		}
	}

	for _, name := range desc.Natives {
		d.natives[name] = true
	}

	for op, prec := range desc.Precedence {
		d.precedence[op] = prec
	}

	return d
}

// Load reads a YAML dialect descriptor from a file.
func Load(path string) (*Dialect, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read dialect file: %w", err)
	}
	return FromYAML(data)
}

// FromYAML parses a YAML dialect descriptor.
func FromYAML(data []byte) (*Dialect, error) {
	var desc Descriptor
	if err := yaml.Unmarshal(data, &desc); err != nil {
		return nil, fmt.Errorf("invalid dialect file: %w", err)
	}
	if desc.Name == "" {
		return nil, fmt.Errorf("dialect file is missing a name")
	}
	return New(desc), nil
}

// IsKeyword implements KeywordSet. The length index avoids hashing every
// identifier against the full set.
func (d *Dialect) IsKeyword(name string) bool {
	if len(name) > d.maxKeywordLen {
		return false
	}
	return d.keywordsByLength[len(name)][name]
}

// IsNative implements NativeSet.
func (d *Dialect) IsNative(name string) bool {
	return d.natives[name]
}

// Precedence implements PrecedenceTable.
func (d *Dialect) Precedence(op string) int {
	return d.precedence[op]
}

// Keywords returns the keyword list in sorted order, for completion UIs.
func (d *Dialect) Keywords() []string {
	var out []string
	for _, byLen := range d.keywordsByLength {
		for kw := range byLen {
			out = append(out, kw)
		}
	}
	sort.Strings(out)
	return out
}

// Natives returns the native identifier list in sorted order.
func (d *Dialect) Natives() []string {
	out := make([]string, 0, len(d.natives))
	for name := range d.natives {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

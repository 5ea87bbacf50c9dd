package symtab

import (
	"fmt"
	"sort"
	"strings"

	"github.com/elliotchance/orderedmap/v2"

	"sicc/pkg/diag"
	"sicc/pkg/source"
	"sicc/pkg/token"
)

// Kind tags the variant of a Record.
type Kind int

const (
	KindConstantAddress Kind = iota
	KindConstantWord
	KindStaticWord
)

func (k Kind) String() string {
	switch k {
	case KindConstantAddress:
		return "address"
	case KindConstantWord:
		return "word"
	case KindStaticWord:
		return "static"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Record is the resolved value of a symbol: one of ConstantAddress,
// ConstantWord or StaticWord.
type Record interface {
	Identifier() string
	Kind() Kind
	// Value is what a reference to the symbol patches in: the address for
	// ConstantAddress and StaticWord, the word itself for ConstantWord.
	Value() int
	record()
}

// ConstantAddress is a fixed load address, typically a label.
type ConstantAddress struct {
	Name    string
	Address uint16
}

func (c ConstantAddress) Identifier() string { return c.Name }
func (ConstantAddress) Kind() Kind           { return KindConstantAddress }
func (c ConstantAddress) Value() int         { return int(c.Address) }
func (ConstantAddress) record()              {}

// ConstantWord is a compile-time constant.
type ConstantWord struct {
	Name string
	Word int
}

func (c ConstantWord) Identifier() string { return c.Name }
func (ConstantWord) Kind() Kind           { return KindConstantWord }
func (c ConstantWord) Value() int         { return c.Word }
func (ConstantWord) record()              {}

// StaticWord is a word of static storage at Address.
type StaticWord struct {
	Name    string
	Address uint16
	Mutable bool
}

func (s StaticWord) Identifier() string { return s.Name }
func (StaticWord) Kind() Kind           { return KindStaticWord }
func (s StaticWord) Value() int         { return int(s.Address) }
func (StaticWord) record()              {}

// Table maps identifiers to records for one compilation unit.
//
// Binding never fails: rebinding a name replaces its record whatever the
// variants involved. Policing redeclarations belongs to the front end.
type Table struct {
	records *orderedmap.OrderedMap[string, Record]
}

func New() *Table {
	return &Table{records: orderedmap.NewOrderedMap[string, Record]()}
}

// Exists reports whether any record is bound to name.
func (t *Table) Exists(name string) bool {
	_, ok := t.records.Get(name)
	return ok
}

// Bind inserts or replaces the record for its identifier.
func (t *Table) Bind(r Record) {
	t.records.Set(r.Identifier(), r)
}

func (t *Table) BindConstantAddress(name string, addr uint16) {
	t.Bind(ConstantAddress{Name: name, Address: addr})
}

func (t *Table) BindConstantWord(name string, word int) {
	t.Bind(ConstantWord{Name: name, Word: word})
}

func (t *Table) BindStaticWord(name string, addr uint16, mutable bool) {
	t.Bind(StaticWord{Name: name, Address: addr, Mutable: mutable})
}

// Resolve returns the record bound to name.
func (t *Table) Resolve(name string) (Record, error) {
	return t.ResolveAt(name, source.Pos{})
}

// ResolveAt is Resolve with an anchor for the failure diagnostic.
func (t *Table) ResolveAt(name string, pos source.Pos) (Record, error) {
	r, ok := t.records.Get(name)
	if !ok {
		return nil, diag.Unresolved(name, pos)
	}
	return r, nil
}

// ResolveToken resolves an identifier token, anchoring failures at the token.
func (t *Table) ResolveToken(tok token.Token) (Record, error) {
	return t.ResolveAt(tok.Text, tok.Pos)
}

// ResolveSymbol returns the value a reference to name patches in. It makes a
// Table usable as a patch.Resolver.
func (t *Table) ResolveSymbol(name string, pos source.Pos) (int, error) {
	r, err := t.ResolveAt(name, pos)
	if err != nil {
		return 0, err
	}
	return r.Value(), nil
}

// Len returns the number of bound names.
func (t *Table) Len() int {
	return t.records.Len()
}

// Names returns the bound names sorted.
func (t *Table) Names() []string {
	names := make([]string, 0, t.records.Len())
	for el := t.records.Front(); el != nil; el = el.Next() {
		names = append(names, el.Key)
	}
	sort.Strings(names)
	return names
}

// Records returns the records in first-bind order.
func (t *Table) Records() []Record {
	out := make([]Record, 0, t.records.Len())
	for el := t.records.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value)
	}
	return out
}

// Values returns name -> patched value for every symbol.
func (t *Table) Values() map[string]int {
	out := make(map[string]int, t.records.Len())
	for el := t.records.Front(); el != nil; el = el.Next() {
		out[el.Key] = el.Value.Value()
	}
	return out
}

// String returns a deterministically ordered dump of the table.
func (t *Table) String() string {
	if t.records.Len() == 0 {
		return "Symbols: (empty)\n"
	}
	var sb strings.Builder
	sb.WriteString("Symbols:\n")
	for _, name := range t.Names() {
		r, _ := t.records.Get(name)
		switch v := r.(type) {
		case ConstantAddress:
			fmt.Fprintf(&sb, "  %-20s  address 0x%04X\n", name, v.Address)
		case ConstantWord:
			fmt.Fprintf(&sb, "  %-20s  word    %d\n", name, v.Word)
		case StaticWord:
			mode := "let"
			if v.Mutable {
				mode = "var"
			}
			fmt.Fprintf(&sb, "  %-20s  static  0x%04X (%s)\n", name, v.Address, mode)
		}
	}
	return sb.String()
}

package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sicc/pkg/diag"
	"sicc/pkg/source"
)

func lit(v int64) *Literal { return &Literal{At: at(1, 1), Kind: IntLit, Value: v} }

func TestFold(t *testing.T) {
	values := map[string]int{"n": 300, "addr": 0x1234}
	lookup := func(name string, pos source.Pos) (int, error) {
		if v, ok := values[name]; ok {
			return v, nil
		}
		return 0, diag.Unresolved(name, pos)
	}
	id := func(name string) *Ident { return &Ident{At: at(1, 3), Name: name} }

	tests := []struct {
		name string
		expr Node
		want int
	}{
		{"literal", lit(7), 7},
		{"bool", &Literal{Kind: BoolLit, Value: 1}, 1},
		{"ident", id("n"), 300},
		{"negate", &Unary{Op: "-", Operand: lit(5)}, -5},
		{"complement", &Unary{Op: "~", Operand: lit(0)}, -1},
		{"not zero", &Unary{Op: "!", Operand: lit(0)}, 1},
		{"not nonzero", &Unary{Op: "!", Operand: lit(9)}, 0},
		{"low byte", &Unary{Op: "<", Operand: id("addr")}, 0x34},
		{"high byte", &Unary{Op: ">", Operand: id("addr")}, 0x12},
		{"left associative", &Binary{Op: "-", Left: &Binary{Op: "-", Left: lit(10), Right: lit(3)}, Right: lit(2)}, 5},
		{"bitwise", &Binary{Op: "|", Left: &Binary{Op: "&", Left: lit(0xF0), Right: lit(0x3C)}, Right: &Binary{Op: "^", Left: lit(1), Right: lit(3)}}, 0x32},
		{"sum", &Binary{Op: "+", Left: id("n"), Right: lit(1)}, 301},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Fold(tc.expr, lookup)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := Fold(&Binary{Op: "+", Left: lit(1), Right: id("missing")}, lookup)
	assert.True(t, diag.IsUnresolved(err))
	assert.Equal(t, `t.s:1:3: unresolved identifier "missing"`, err.Error())

	_, err = Fold(id("n"), nil)
	assert.True(t, diag.IsUnresolved(err))

	_, err = Fold(&Halt{At: at(4, 1)}, lookup)
	assert.EqualError(t, err, "t.s:4:1: halt is not a constant expression")
}

// Package emit collects the first-pass output of a front end: an instruction
// stream whose symbolic immediates are still zero, the patch actions that will
// fill them in, and the static words laid out after the code.
package emit

import (
	"github.com/ccoveille/go-safecast"
	"github.com/pkg/errors"

	"sicc/pkg/isa"
	"sicc/pkg/patch"
	"sicc/pkg/source"
	"sicc/pkg/symtab"
)

// Static is one word of static storage.
type Static struct {
	Name    string
	Init    isa.Immediate
	Mutable bool
	Pos     source.Pos
}

// Unpatched is everything the patcher and the image writer need.
type Unpatched struct {
	Base      uint16
	Code      []isa.Instruction
	Actions   []patch.Action
	Data      []Static
	SourceMap map[uint16]int // instruction address -> source line
}

// Emitter appends instructions for one compilation unit.
type Emitter struct {
	base      uint16
	code      []isa.Instruction
	actions   []patch.Action
	statics   []Static
	sourceMap map[uint16]int
}

// New returns an emitter whose first instruction loads at base.
func New(base uint16) *Emitter {
	return &Emitter{base: base, sourceMap: make(map[uint16]int)}
}

// Len returns the number of instructions emitted so far.
func (e *Emitter) Len() int {
	return len(e.code)
}

// Address returns the load address of the next instruction.
func (e *Emitter) Address() (uint16, error) {
	return addressOf(e.base, len(e.code)*isa.InstructionSize)
}

// Emit appends an instruction with a known immediate and returns its index.
func (e *Emitter) Emit(op isa.Opcode, imm isa.Immediate, pos source.Pos) int {
	idx := len(e.code)
	if pos.IsValid() {
		if addr, err := e.Address(); err == nil {
			if _, seen := e.sourceMap[addr]; !seen {
				e.sourceMap[addr] = pos.Line
			}
		}
	}
	e.code = append(e.code, isa.New(op, imm))
	return idx
}

// EmitRef appends an instruction whose immediate is symbol >> shift, to be
// filled in by the patcher.
func (e *Emitter) EmitRef(op isa.Opcode, symbol string, shift uint, pos source.Pos) int {
	idx := e.Emit(op, 0, pos)
	e.actions = append(e.actions, patch.Action{Index: idx, Pos: pos, Symbol: symbol, Shift: shift})
	return idx
}

// EmitAddress loads the address register with symbol: SAL with its low byte,
// SAH with its high byte.
func (e *Emitter) EmitAddress(symbol string, pos source.Pos) {
	e.EmitRef(isa.OpSAL, symbol, 0, pos)
	e.EmitRef(isa.OpSAH, symbol, isa.ImmediateBits, pos)
}

// Reserve adds a static word. Its address is assigned by Finish.
func (e *Emitter) Reserve(name string, init isa.Immediate, mutable bool, pos source.Pos) {
	e.statics = append(e.statics, Static{Name: name, Init: init, Mutable: mutable, Pos: pos})
}

// Statics returns the static words reserved so far.
func (e *Emitter) Statics() []Static {
	return e.statics
}

// Finish places the static words directly after the code, binds each as a
// StaticWord in syms, and returns the unpatched unit. It fails when code and
// data do not fit the address space.
func (e *Emitter) Finish(syms *symtab.Table) (*Unpatched, error) {
	size := len(e.code)*isa.InstructionSize + len(e.statics)
	if size > 0 {
		if _, err := addressOf(e.base, size-1); err != nil {
			return nil, errors.Wrapf(err, "program of %d bytes does not fit at base 0x%04X", size, e.base)
		}
	}
	dataStart := len(e.code) * isa.InstructionSize
	for i, s := range e.statics {
		addr, err := addressOf(e.base, dataStart+i)
		if err != nil {
			return nil, err
		}
		syms.BindStaticWord(s.Name, addr, s.Mutable)
	}
	return &Unpatched{
		Base:      e.base,
		Code:      e.code,
		Actions:   e.actions,
		Data:      e.statics,
		SourceMap: e.sourceMap,
	}, nil
}

func addressOf(base uint16, offset int) (uint16, error) {
	addr, err := safecast.ToUint16(int(base) + offset)
	if err != nil {
		return 0, errors.Errorf("address 0x%X past end of memory", int(base)+offset)
	}
	return addr, nil
}

// Package isa describes the SIC-8 instruction format both front ends emit:
// an 8-bit opcode and a single 8-bit immediate, with 16-bit addresses loaded
// into the address register one byte at a time (SAL/SAH).
package isa

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

const (
	// ImmediateBits is the width of the immediate operand.
	ImmediateBits = 8
	// ImmediateMask keeps the bits of a value that fit the immediate.
	ImmediateMask = 1<<ImmediateBits - 1
	// AddressBits is the width of a load address.
	AddressBits = 16
	// InstructionSize is the encoded size of one instruction in bytes.
	InstructionSize = 2
	// MaxAddress is the highest addressable byte.
	MaxAddress = 1<<AddressBits - 1
)

// Opcode selects the operation of an instruction.
type Opcode uint8

// Immediate is the single operand embedded in an instruction.
type Immediate uint8

const (
	OpNOP Opcode = 0x00
	OpHLT Opcode = 0x01
	OpLDI Opcode = 0x02 // A = imm
	OpADI Opcode = 0x03 // A += imm
	OpSBI Opcode = 0x04 // A -= imm
	OpANI Opcode = 0x05 // A &= imm
	OpORI Opcode = 0x06 // A |= imm
	OpXRI Opcode = 0x07 // A ^= imm
	OpSAL Opcode = 0x08 // AR low byte = imm
	OpSAH Opcode = 0x09 // AR high byte = imm
	OpLDA Opcode = 0x0A // A = mem[AR]
	OpSTA Opcode = 0x0B // mem[AR] = A
	OpADM Opcode = 0x0C // A += mem[AR]
	OpSBM Opcode = 0x0D // A -= mem[AR]
	OpANM Opcode = 0x0E // A &= mem[AR]
	OpORM Opcode = 0x0F // A |= mem[AR]
	OpXRM Opcode = 0x10 // A ^= mem[AR]
	OpNOT Opcode = 0x11 // A = ^A
	OpNEG Opcode = 0x12 // A = -A
	OpJMP Opcode = 0x13 // PC = AR
	OpJZ  Opcode = 0x14 // if A == 0: PC = AR
	OpJNZ Opcode = 0x15 // if A != 0: PC = AR
	OpOUT Opcode = 0x16 // port[imm] = A
	OpIN  Opcode = 0x17 // A = port[imm]
	OpSEQ Opcode = 0x18 // A = A == 0 ? 1 : 0
)

type opInfo struct {
	name      string
	immediate bool // the immediate is meaningful
	address   bool // operates on the address register
}

var opcodes = map[Opcode]opInfo{
	OpNOP: {name: "NOP"},
	OpHLT: {name: "HLT"},
	OpLDI: {name: "LDI", immediate: true},
	OpADI: {name: "ADI", immediate: true},
	OpSBI: {name: "SBI", immediate: true},
	OpANI: {name: "ANI", immediate: true},
	OpORI: {name: "ORI", immediate: true},
	OpXRI: {name: "XRI", immediate: true},
	OpSAL: {name: "SAL", immediate: true},
	OpSAH: {name: "SAH", immediate: true},
	OpLDA: {name: "LDA", address: true},
	OpSTA: {name: "STA", address: true},
	OpADM: {name: "ADM", address: true},
	OpSBM: {name: "SBM", address: true},
	OpANM: {name: "ANM", address: true},
	OpORM: {name: "ORM", address: true},
	OpXRM: {name: "XRM", address: true},
	OpNOT: {name: "NOT"},
	OpNEG: {name: "NEG"},
	OpJMP: {name: "JMP", address: true},
	OpJZ:  {name: "JZ", address: true},
	OpJNZ: {name: "JNZ", address: true},
	OpOUT: {name: "OUT", immediate: true},
	OpIN:  {name: "IN", immediate: true},
	OpSEQ: {name: "SEQ"},
}

var mnemonics = func() map[string]Opcode {
	m := make(map[string]Opcode, len(opcodes))
	for op, info := range opcodes {
		m[info.name] = op
	}
	return m
}()

// Lookup returns the opcode for a mnemonic, ignoring case.
func Lookup(mnemonic string) (Opcode, bool) {
	op, ok := mnemonics[strings.ToUpper(mnemonic)]
	return op, ok
}

// Valid reports whether op is a defined opcode.
func (op Opcode) Valid() bool {
	_, ok := opcodes[op]
	return ok
}

func (op Opcode) String() string {
	if info, ok := opcodes[op]; ok {
		return info.name
	}
	return fmt.Sprintf("Opcode(0x%02X)", uint8(op))
}

// TakesImmediate reports whether the immediate of op is meaningful.
func TakesImmediate(op Opcode) bool {
	return opcodes[op].immediate
}

// UsesAddress reports whether op reads the address register.
func UsesAddress(op Opcode) bool {
	return opcodes[op].address
}

// Instruction is one opcode/immediate pair. Instructions compare by value.
type Instruction struct {
	Op  Opcode
	Imm Immediate
}

// New returns an instruction.
func New(op Opcode, imm Immediate) Instruction {
	return Instruction{Op: op, Imm: imm}
}

func (i Instruction) String() string {
	if TakesImmediate(i.Op) {
		return fmt.Sprintf("%s 0x%02X", i.Op, uint8(i.Imm))
	}
	return i.Op.String()
}

// Truncate keeps the bits of v that fit an immediate. Negative values wrap in
// two's complement.
func Truncate(v int) Immediate {
	return Immediate(v & ImmediateMask)
}

// Encode writes every instruction as opcode byte followed by immediate byte.
func Encode(code []Instruction) []byte {
	out := make([]byte, 0, len(code)*InstructionSize)
	for _, in := range code {
		out = append(out, byte(in.Op), byte(in.Imm))
	}
	return out
}

// Decode is the inverse of Encode.
func Decode(b []byte) ([]Instruction, error) {
	if len(b)%InstructionSize != 0 {
		return nil, errors.Errorf("code length %d is not a multiple of %d", len(b), InstructionSize)
	}
	code := make([]Instruction, 0, len(b)/InstructionSize)
	for i := 0; i < len(b); i += InstructionSize {
		op := Opcode(b[i])
		if !op.Valid() {
			return nil, errors.Errorf("invalid opcode 0x%02X at offset %d", b[i], i)
		}
		code = append(code, Instruction{Op: op, Imm: Immediate(b[i+1])})
	}
	return code, nil
}

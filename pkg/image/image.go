// Package image holds finished programs: patched code, initialised static
// data and the metadata a loader or debugger needs, with a raw binary form
// and a CBOR object-file form.
package image

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"sicc/pkg/emit"
	"sicc/pkg/isa"
	"sicc/pkg/symtab"
)

const (
	objectMagic   = "SIC8"
	objectVersion = 1
)

// Format selects how an image is written.
type Format int

const (
	FormatBinary Format = iota // code bytes followed by data bytes
	FormatObject               // CBOR object file with symbols and source map
)

// ParseFormat maps "bin" and "obj" to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "bin", "binary":
		return FormatBinary, nil
	case "obj", "object":
		return FormatObject, nil
	}
	return 0, errors.Errorf("unknown output format %q", s)
}

func (f Format) String() string {
	if f == FormatObject {
		return "obj"
	}
	return "bin"
}

// Image is a fully patched program.
type Image struct {
	Name      string
	Base      uint16
	Code      []isa.Instruction
	Data      []byte
	Symbols   map[string]int
	Constants []string // names in Symbols that are plain words, not addresses
	SourceMap map[uint16]int
}

// New assembles an image from a unit's first-pass output and its patched
// code.
func New(name string, u *emit.Unpatched, code []isa.Instruction, syms *symtab.Table) *Image {
	var data []byte
	for _, s := range u.Data {
		data = append(data, byte(s.Init))
	}
	var constants []string
	for _, r := range syms.Records() {
		if r.Kind() == symtab.KindConstantWord {
			constants = append(constants, r.Identifier())
		}
	}
	sort.Strings(constants)
	return &Image{
		Name:      name,
		Base:      u.Base,
		Code:      code,
		Data:      data,
		Symbols:   syms.Values(),
		Constants: constants,
		SourceMap: u.SourceMap,
	}
}

// Binary returns the bytes to load at Base.
func (img *Image) Binary() []byte {
	return append(isa.Encode(img.Code), img.Data...)
}

// Size returns the number of bytes the image occupies in memory.
func (img *Image) Size() int {
	return len(img.Code)*isa.InstructionSize + len(img.Data)
}

type object struct {
	Magic     string         `cbor:"1,keyasint"`
	Version   int            `cbor:"2,keyasint"`
	Name      string         `cbor:"3,keyasint,omitempty"`
	Base      uint16         `cbor:"4,keyasint"`
	Code      []byte         `cbor:"5,keyasint"`
	Data      []byte         `cbor:"6,keyasint,omitempty"`
	Symbols   map[string]int `cbor:"7,keyasint,omitempty"`
	SourceMap map[uint16]int `cbor:"8,keyasint,omitempty"`
	Constants []string       `cbor:"9,keyasint,omitempty"`
}

// EncodeObject serialises the image as a CBOR object file.
func (img *Image) EncodeObject() ([]byte, error) {
	b, err := cbor.Marshal(object{
		Magic:     objectMagic,
		Version:   objectVersion,
		Name:      img.Name,
		Base:      img.Base,
		Code:      isa.Encode(img.Code),
		Data:      img.Data,
		Symbols:   img.Symbols,
		SourceMap: img.SourceMap,
		Constants: img.Constants,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode object")
	}
	return b, nil
}

// DecodeObject parses an object file produced by EncodeObject.
func DecodeObject(b []byte) (*Image, error) {
	var obj object
	if err := cbor.Unmarshal(b, &obj); err != nil {
		return nil, errors.Wrap(err, "failed to decode object")
	}
	if obj.Magic != objectMagic {
		return nil, errors.Errorf("not an object file (magic %q)", obj.Magic)
	}
	if obj.Version != objectVersion {
		return nil, errors.Errorf("unsupported object version %d", obj.Version)
	}
	code, err := isa.Decode(obj.Code)
	if err != nil {
		return nil, errors.Wrap(err, "corrupt code section")
	}
	return &Image{
		Name:      obj.Name,
		Base:      obj.Base,
		Code:      code,
		Data:      obj.Data,
		Symbols:   obj.Symbols,
		Constants: obj.Constants,
		SourceMap: obj.SourceMap,
	}, nil
}

// Save writes the image to path on fs.
func (img *Image) Save(fs afero.Fs, path string, format Format) error {
	var b []byte
	switch format {
	case FormatObject:
		var err error
		if b, err = img.EncodeObject(); err != nil {
			return err
		}
	default:
		b = img.Binary()
	}
	if err := afero.WriteFile(fs, path, b, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %q", path)
	}
	return nil
}

// Load reads an object file from fs.
func Load(fs afero.Fs, path string) (*Image, error) {
	b, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %q", path)
	}
	return DecodeObject(b)
}

// Listing renders a disassembly with addresses, source lines, static data and
// the labels and statics placed at each address.
func (img *Image) Listing() string {
	var sb strings.Builder
	labels := make(map[int][]string)
	for name, v := range img.Symbols {
		if slices.Contains(img.Constants, name) {
			continue
		}
		labels[v] = append(labels[v], name)
	}
	for _, names := range labels {
		sort.Strings(names)
	}

	addr := int(img.Base)
	for _, in := range img.Code {
		for _, name := range labels[addr] {
			fmt.Fprintf(&sb, "%s:\n", name)
		}
		fmt.Fprintf(&sb, "  0x%04X  %-10s", addr, in)
		if line, ok := img.SourceMap[uint16(addr)]; ok {
			fmt.Fprintf(&sb, "  ; line %d", line)
		}
		sb.WriteByte('\n')
		addr += isa.InstructionSize
	}
	for _, b := range img.Data {
		for _, name := range labels[addr] {
			fmt.Fprintf(&sb, "%s:\n", name)
		}
		fmt.Fprintf(&sb, "  0x%04X  .byte 0x%02X\n", addr, b)
		addr++
	}
	return sb.String()
}

package image

import (
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sicc/pkg/emit"
	"sicc/pkg/isa"
	"sicc/pkg/source"
	"sicc/pkg/symtab"
)

func sample(t *testing.T) *Image {
	t.Helper()
	e := emit.New(0x0200)
	e.Emit(isa.OpLDI, 7, source.NewPos("s.s", 1, 1))
	e.EmitAddress("x", source.NewPos("s.s", 2, 1))
	e.Emit(isa.OpSTA, 0, source.NewPos("s.s", 2, 1))
	e.Emit(isa.OpHLT, 0, source.NewPos("s.s", 3, 1))
	e.Reserve("x", 0x2A, true, source.Pos{})

	syms := symtab.New()
	syms.BindConstantAddress("start", 0x0200)
	u, err := e.Finish(syms)
	require.NoError(t, err)

	code := append([]isa.Instruction(nil), u.Code...)
	code[1].Imm = 0x0A
	code[2].Imm = 0x02
	return New("s.s", u, code, syms)
}

func TestBinary(t *testing.T) {
	img := sample(t)
	assert.Equal(t, []byte{
		byte(isa.OpLDI), 7,
		byte(isa.OpSAL), 0x0A,
		byte(isa.OpSAH), 0x02,
		byte(isa.OpSTA), 0,
		byte(isa.OpHLT), 0,
		0x2A,
	}, img.Binary())
	assert.Equal(t, 11, img.Size())
	assert.Equal(t, map[string]int{"start": 0x0200, "x": 0x020A}, img.Symbols)
}

func TestObjectRoundTrip(t *testing.T) {
	img := sample(t)
	b, err := img.EncodeObject()
	require.NoError(t, err)

	got, err := DecodeObject(b)
	require.NoError(t, err)
	assert.Equal(t, img, got)
}

func TestDecodeObjectRejects(t *testing.T) {
	_, err := DecodeObject([]byte{0xff, 0x00})
	assert.Error(t, err)

	b, err := cbor.Marshal(object{Magic: "ELF", Version: objectVersion})
	require.NoError(t, err)
	_, err = DecodeObject(b)
	assert.ErrorContains(t, err, "not an object file")

	b, err = cbor.Marshal(object{Magic: objectMagic, Version: 99})
	require.NoError(t, err)
	_, err = DecodeObject(b)
	assert.ErrorContains(t, err, "unsupported object version 99")

	b, err = cbor.Marshal(object{Magic: objectMagic, Version: objectVersion, Code: []byte{1}})
	require.NoError(t, err)
	_, err = DecodeObject(b)
	assert.ErrorContains(t, err, "corrupt code section")
}

func TestSaveLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	img := sample(t)

	require.NoError(t, img.Save(fs, "/out/prog.obj", FormatObject))
	got, err := Load(fs, "/out/prog.obj")
	require.NoError(t, err)
	assert.Equal(t, img, got)

	require.NoError(t, img.Save(fs, "/out/prog.bin", FormatBinary))
	raw, err := afero.ReadFile(fs, "/out/prog.bin")
	require.NoError(t, err)
	assert.Equal(t, img.Binary(), raw)

	_, err = Load(fs, "/missing.obj")
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("OBJ")
	require.NoError(t, err)
	assert.Equal(t, FormatObject, f)
	f, err = ParseFormat("bin")
	require.NoError(t, err)
	assert.Equal(t, FormatBinary, f)
	assert.Equal(t, "bin", f.String())
	_, err = ParseFormat("hex")
	assert.Error(t, err)
}

func TestListing(t *testing.T) {
	want := "start:\n" +
		"  0x0200  LDI 0x07    ; line 1\n" +
		"  0x0202  SAL 0x0A    ; line 2\n" +
		"  0x0204  SAH 0x02    ; line 2\n" +
		"  0x0206  STA         ; line 2\n" +
		"  0x0208  HLT         ; line 3\n" +
		"x:\n" +
		"  0x020A  .byte 0x2A\n"
	assert.Equal(t, want, sample(t).Listing())
}

func TestListingSkipsConstantWords(t *testing.T) {
	e := emit.New(0)
	e.Emit(isa.OpLDI, 0, source.NewPos("c.s", 2, 1))
	e.Emit(isa.OpHLT, 0, source.NewPos("c.s", 3, 1))

	syms := symtab.New()
	syms.BindConstantWord("LIMIT", 0)
	syms.BindConstantAddress("start", 0)
	u, err := e.Finish(syms)
	require.NoError(t, err)

	img := New("c.s", u, u.Code, syms)
	assert.Equal(t, []string{"LIMIT"}, img.Constants)
	assert.Equal(t, "start:\n"+
		"  0x0000  LDI 0x00    ; line 2\n"+
		"  0x0002  HLT         ; line 3\n", img.Listing())

	b, err := img.EncodeObject()
	require.NoError(t, err)
	got, err := DecodeObject(b)
	require.NoError(t, err)
	assert.Equal(t, img, got)
	assert.Equal(t, img.Listing(), got.Listing())
}

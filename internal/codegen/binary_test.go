package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleObject() *Object {
	return &Object{
		EntryPoint: 0,
		Text:       []byte{0x48, 0x31, 0xC0, 0xC3},
		Data:       []byte{0x2A, 0, 0, 0, 0, 0, 0, 0},
		BSSSize:    8,
		Relocations: []Relocation{
			{Offset: 10, Symbol: "__aura_alloc", Kind: Relative32},
		},
		Symbols: []Symbol{
			{Name: "main", Offset: 0, Size: 4, Kind: SymFunction},
			{Name: "N", Offset: 0, Size: 8, Kind: SymData},
		},
	}
}

// Property 4: serializing then parsing the header recovers identical field
// values, and offsets satisfy text_offset + align16(text_size) == data_offset
// and data_offset + align16(data_size) equals the start of relocations.
func TestSerialize_HeaderRoundTrip(t *testing.T) {
	obj := sampleObject()
	buf, err := Serialize(obj)
	require.NoError(t, err)

	h, err := headerFromBytes(buf)
	require.NoError(t, err)

	assert.Equal(t, uint8(1), h.Version)
	assert.Equal(t, obj.EntryPoint, h.EntryPoint)
	assert.Equal(t, uint64(4096), h.StackSize)
	assert.Equal(t, uint64(len(obj.Text)), h.TextSize)
	assert.Equal(t, uint64(len(obj.Data)), h.DataSize)
	assert.Equal(t, obj.BSSSize, h.BSSSize)
	assert.Equal(t, uint64(len(obj.Relocations)), h.RelocCount)
	assert.Equal(t, uint64(len(obj.Symbols)), h.SymbolCount)

	assert.Equal(t, uint64(HeaderSize), h.TextOffset)
	wantDataOffset := h.TextOffset + alignTo(h.TextSize, 16)
	assert.Equal(t, wantDataOffset, h.DataOffset)

	relocStart := h.DataOffset + alignTo(h.DataSize, 16)
	assert.Equal(t, int(relocStart), HeaderSize+int(alignTo(h.TextSize, 16))+int(alignTo(h.DataSize, 16)))
	assert.LessOrEqual(t, int(relocStart), len(buf))
}

// Property 5: compiling (here, serializing) the same Object twice produces
// byte-identical containers.
func TestSerialize_Idempotent(t *testing.T) {
	obj := sampleObject()
	a, err := Serialize(obj)
	require.NoError(t, err)
	b, err := Serialize(obj)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestHeaderFromBytes_RejectsBadMagic(t *testing.T) {
	buf := make([]byte, HeaderSize)
	copy(buf, "NOPE")
	_, err := headerFromBytes(buf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad magic")
}

func TestHeaderFromBytes_RejectsTruncated(t *testing.T) {
	_, err := headerFromBytes(make([]byte, 10))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too small")
}

func TestDump_DoesNotErrorOnScenarioA(t *testing.T) {
	obj := &Object{Text: []byte{0x48, 0x31, 0xC0, 0xC3}}
	buf, err := Serialize(obj)
	require.NoError(t, err)
	assert.NoError(t, Dump(buf))
}

func TestAlignTo(t *testing.T) {
	assert.Equal(t, uint64(0), alignTo(0, 16))
	assert.Equal(t, uint64(16), alignTo(1, 16))
	assert.Equal(t, uint64(16), alignTo(16, 16))
	assert.Equal(t, uint64(32), alignTo(17, 16))
}

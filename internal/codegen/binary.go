package codegen

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
)

// HeaderSize is the fixed size, in bytes, of the AURA container header: the
// 4-byte magic, version, flags and reserved fields followed by nine u64
// fields (entry_point through symbol_count), 4+1+1+2+8*9 = 80 bytes. The distilled container-format prose states
// 72 bytes, which does not match its own field-offset table (whose last
// field starts at offset 72 and is itself 8 bytes wide); this repository
// follows the table and the original implementation's actual struct layout
// rather than the conflicting prose figure — see DESIGN.md.
const HeaderSize = 80

const magic = "AURA"

type header struct {
	Version     uint8
	Flags       uint8
	Reserved    uint16
	EntryPoint  uint64
	StackSize   uint64
	TextOffset  uint64
	TextSize    uint64
	DataOffset  uint64
	DataSize    uint64
	BSSSize     uint64
	RelocCount  uint64
	SymbolCount uint64
}

func (h *header) bytes() []byte {
	buf := make([]byte, HeaderSize)
	copy(buf[0:4], magic)
	buf[4] = h.Version
	buf[5] = h.Flags
	binary.LittleEndian.PutUint16(buf[6:8], h.Reserved)
	binary.LittleEndian.PutUint64(buf[8:16], h.EntryPoint)
	binary.LittleEndian.PutUint64(buf[16:24], h.StackSize)
	binary.LittleEndian.PutUint64(buf[24:32], h.TextOffset)
	binary.LittleEndian.PutUint64(buf[32:40], h.TextSize)
	binary.LittleEndian.PutUint64(buf[40:48], h.DataOffset)
	binary.LittleEndian.PutUint64(buf[48:56], h.DataSize)
	binary.LittleEndian.PutUint64(buf[56:64], h.BSSSize)
	binary.LittleEndian.PutUint64(buf[64:72], h.RelocCount)
	binary.LittleEndian.PutUint64(buf[72:80], h.SymbolCount)
	return buf
}

func headerFromBytes(data []byte) (*header, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("file too small for header")
	}
	if string(data[0:4]) != magic {
		return nil, fmt.Errorf("bad magic %q, expected %q", data[0:4], magic)
	}
	h := &header{
		Version:     data[4],
		Flags:       data[5],
		Reserved:    binary.LittleEndian.Uint16(data[6:8]),
		EntryPoint:  binary.LittleEndian.Uint64(data[8:16]),
		StackSize:   binary.LittleEndian.Uint64(data[16:24]),
		TextOffset:  binary.LittleEndian.Uint64(data[24:32]),
		TextSize:    binary.LittleEndian.Uint64(data[32:40]),
		DataOffset:  binary.LittleEndian.Uint64(data[40:48]),
		DataSize:    binary.LittleEndian.Uint64(data[48:56]),
		BSSSize:     binary.LittleEndian.Uint64(data[56:64]),
		RelocCount:  binary.LittleEndian.Uint64(data[64:72]),
		SymbolCount: binary.LittleEndian.Uint64(data[72:80]),
	}
	return h, nil
}

func alignTo(size, align uint64) uint64 {
	if align == 0 {
		return size
	}
	return (size + align - 1) / align * align
}

// (Relocation).bytes serializes one relocation record: u64 offset, u64
// name_len, name bytes, one NUL, one kind byte.
func (r Relocation) bytes() []byte {
	var buf bytes.Buffer
	var u64 [8]byte
	binary.LittleEndian.PutUint64(u64[:], r.Offset)
	buf.Write(u64[:])
	binary.LittleEndian.PutUint64(u64[:], uint64(len(r.Symbol)))
	buf.Write(u64[:])
	buf.WriteString(r.Symbol)
	buf.WriteByte(0)
	buf.WriteByte(byte(r.Kind))
	return buf.Bytes()
}

// (Symbol).bytes serializes one symbol record: u64 name_len, name bytes,
// one NUL, u64 offset, u64 size, one kind byte.
func (s Symbol) bytes() []byte {
	var buf bytes.Buffer
	var u64 [8]byte
	binary.LittleEndian.PutUint64(u64[:], uint64(len(s.Name)))
	buf.Write(u64[:])
	buf.WriteString(s.Name)
	buf.WriteByte(0)
	binary.LittleEndian.PutUint64(u64[:], s.Offset)
	buf.Write(u64[:])
	binary.LittleEndian.PutUint64(u64[:], s.Size)
	buf.Write(u64[:])
	buf.WriteByte(byte(s.Kind))
	return buf.Bytes()
}

// Write serializes an Object as a complete AURA container to path, per the
// binary writer's layout: header, padded text, padded data, relocations,
// symbols.
func Write(obj *Object, path string) error {
	buf, err := Serialize(obj)
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0o644)
}

// Serialize renders an Object into the AURA container byte layout without
// touching the filesystem, so round-trip and idempotence properties can be
// tested directly.
func Serialize(obj *Object) ([]byte, error) {
	textPadded := alignTo(uint64(len(obj.Text)), 16)
	dataPadded := alignTo(uint64(len(obj.Data)), 16)

	h := &header{
		Version:     1,
		EntryPoint:  obj.EntryPoint,
		StackSize:   4096,
		TextOffset:  HeaderSize,
		TextSize:    uint64(len(obj.Text)),
		DataOffset:  HeaderSize + textPadded,
		DataSize:    uint64(len(obj.Data)),
		BSSSize:     obj.BSSSize,
		RelocCount:  uint64(len(obj.Relocations)),
		SymbolCount: uint64(len(obj.Symbols)),
	}

	var out bytes.Buffer
	out.Write(h.bytes())
	out.Write(obj.Text)
	out.Write(make([]byte, textPadded-uint64(len(obj.Text))))
	out.Write(obj.Data)
	out.Write(make([]byte, dataPadded-uint64(len(obj.Data))))
	for _, r := range obj.Relocations {
		out.Write(r.bytes())
	}
	for _, s := range obj.Symbols {
		out.Write(s.bytes())
	}
	return out.Bytes(), nil
}

// Dump prints the container's header fields and a hex dump of the text and
// data sections, in the layout exercised by scenario F.
func Dump(data []byte) error {
	h, err := headerFromBytes(data)
	if err != nil {
		return err
	}

	fmt.Println("=== Aura Binary Dump ===")
	fmt.Printf("Magic: %s\n", magic)
	fmt.Printf("Version: %d\n", h.Version)
	fmt.Printf("Entry Point: 0x%016x\n", h.EntryPoint)
	fmt.Printf("Stack Size: %d\n", h.StackSize)
	fmt.Printf("Text Offset: %d, Size: %d\n", h.TextOffset, h.TextSize)
	fmt.Printf("Data Offset: %d, Size: %d\n", h.DataOffset, h.DataSize)
	fmt.Printf("BSS Size: %d\n", h.BSSSize)
	fmt.Printf("Relocations: %d\n", h.RelocCount)
	fmt.Printf("Symbols: %d\n", h.SymbolCount)

	textStart := h.TextOffset
	textEnd := textStart + h.TextSize
	if textEnd <= uint64(len(data)) && h.TextSize > 0 {
		fmt.Printf("\n=== Text Section (%d bytes) ===\n", h.TextSize)
		printHex(data[textStart:textEnd])
	}

	dataStart := h.DataOffset
	dataEnd := dataStart + h.DataSize
	if dataEnd <= uint64(len(data)) && h.DataSize > 0 {
		fmt.Printf("\n=== Data Section (%d bytes) ===\n", h.DataSize)
		printHex(data[dataStart:dataEnd])
	}
	return nil
}

func printHex(data []byte) {
	for i := 0; i < len(data); i += 16 {
		end := i + 16
		if end > len(data) {
			end = len(data)
		}
		chunk := data[i:end]
		line := ""
		for j, b := range chunk {
			if j > 0 {
				line += " "
			}
			line += fmt.Sprintf("%02x", b)
		}
		fmt.Printf("%08x: %s\n", i, line)
	}
}

package codegen

import (
	"encoding/binary"

	"github.com/gmofishsauce/aura/internal/ast"
)

// This file gathers the raw x86-64 byte-emission helpers used by
// codegen.go, one small method per instruction form, following the
// encoding discipline in the component design.

func (g *Generator) emitImm64(v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	g.text = append(g.text, buf[:]...)
}

func (g *Generator) emitImm32(v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	g.text = append(g.text, buf[:]...)
}

func (g *Generator) emitImm16(v uint16) {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	g.text = append(g.text, buf[:]...)
}

// movRaxImm64: 48 B8 <imm64-le>
func (g *Generator) movRaxImm64(v uint64) {
	g.text = append(g.text, 0x48, 0xB8)
	g.emitImm64(v)
}

// movRdiImm64: 48 BF <imm64-le>
func (g *Generator) movRdiImm64(v uint64) {
	g.text = append(g.text, 0x48, 0xBF)
	g.emitImm64(v)
}

// movRsiImm64: 48 BE <imm64-le>
func (g *Generator) movRsiImm64(v uint64) {
	g.text = append(g.text, 0x48, 0xBE)
	g.emitImm64(v)
}

// movRdxImm64: 48 BA <imm64-le>
func (g *Generator) movRdxImm64(v uint64) {
	g.text = append(g.text, 0x48, 0xBA)
	g.emitImm64(v)
}

// movR10Imm64: 49 BA <imm64-le>
func (g *Generator) movR10Imm64(v uint64) {
	g.text = append(g.text, 0x49, 0xBA)
	g.emitImm64(v)
}

// emitWidthImmediate emits the narrowest move form for the given integer
// width, per the bit-width move table: mov al,imm8 / mov ax,imm16 (with a
// 66 operand-size prefix) / mov eax,imm32 / mov rax,imm64. A zero immediate
// always lowers to `xor rax,rax` instead: it zeroes the full 64-bit register,
// which is a correct (and shorter) zero value at any narrower declared
// width too.
func (g *Generator) emitWidthImmediate(it IntType, masked uint64) {
	if masked == 0 {
		g.xorRaxRax()
		return
	}
	switch it.StorageSize() {
	case 1:
		g.text = append(g.text, 0xB0, byte(masked))
	case 2:
		g.text = append(g.text, 0x66, 0xB8)
		g.emitImm16(uint16(masked))
	case 4:
		g.text = append(g.text, 0xB8)
		g.emitImm32(uint32(masked))
	default:
		g.movRaxImm64(masked)
	}
}

// xorRaxRax: 48 31 C0
func (g *Generator) xorRaxRax() { g.text = append(g.text, 0x48, 0x31, 0xC0) }

// ret: C3
func (g *Generator) ret() { g.text = append(g.text, 0xC3) }

// syscall: 0F 05
func (g *Generator) syscall() { g.text = append(g.text, 0x0F, 0x05) }

// movRaxMemRax: mov rax, [rax] = 48 8B 00
func (g *Generator) movRaxMemRax() { g.text = append(g.text, 0x48, 0x8B, 0x00) }

// movMemRaxRax: mov [rax], rax = 48 89 00
func (g *Generator) movMemRaxRax() { g.text = append(g.text, 0x48, 0x89, 0x00) }

// movMemR10Rax: mov [r10], rax = 49 89 02
func (g *Generator) movMemR10Rax() { g.text = append(g.text, 0x49, 0x89, 0x02) }

// movRaxMemR10: mov rax, [r10] = 49 8B 02
func (g *Generator) movRaxMemR10() { g.text = append(g.text, 0x49, 0x8B, 0x02) }

// maskRax: and rax, imm32 = 48 25 <imm32-le>, a 4-byte little-endian
// immediate per the component design's explicit correction of the encoding.
func (g *Generator) maskRax(mask uint32) {
	g.text = append(g.text, 0x48, 0x25)
	g.emitImm32(mask)
}

// movsxEaxAl: movsx eax, al = 0F BE C0
func (g *Generator) movsxEaxAl() { g.text = append(g.text, 0x0F, 0xBE, 0xC0) }

// movzxEaxAl: movzx eax, al = 0F B6 C0
func (g *Generator) movzxEaxAl() { g.text = append(g.text, 0x0F, 0xB6, 0xC0) }

// movsxEaxAx: movsx eax, ax = 0F BF C0
func (g *Generator) movsxEaxAx() { g.text = append(g.text, 0x0F, 0xBF, 0xC0) }

// movzxEaxAx: movzx eax, ax = 0F B7 C0
func (g *Generator) movzxEaxAx() { g.text = append(g.text, 0x0F, 0xB7, 0xC0) }

// negRax: neg rax = 48 F7 D8
func (g *Generator) negRax() { g.text = append(g.text, 0x48, 0xF7, 0xD8) }

// notRax: not rax = 48 F7 D0
func (g *Generator) notRax() { g.text = append(g.text, 0x48, 0xF7, 0xD0) }

// testRaxRax: test rax, rax = 48 85 C0
func (g *Generator) testRaxRax() { g.text = append(g.text, 0x48, 0x85, 0xC0) }

// seteAl: sete al = 0F 94 C0
func (g *Generator) seteAl() { g.text = append(g.text, 0x0F, 0x94, 0xC0) }

// setneAl: setne al = 0F 95 C0
func (g *Generator) setneAl() { g.text = append(g.text, 0x0F, 0x95, 0xC0) }

// pushRax: push rax = 50
func (g *Generator) pushRax() { g.text = append(g.text, 0x50) }

// popRax: pop rax = 58
func (g *Generator) popRax() { g.text = append(g.text, 0x58) }

// popRcx: pop rcx = 59
func (g *Generator) popRcx() { g.text = append(g.text, 0x59) }

// addRaxRcx: add rax, rcx = 48 01 C8
func (g *Generator) addRaxRcx() { g.text = append(g.text, 0x48, 0x01, 0xC8) }

// subRcxRax: sub rcx, rax = 48 29 C1
func (g *Generator) subRcxRax() { g.text = append(g.text, 0x48, 0x29, 0xC1) }

// movRaxRcx: mov rax, rcx = 48 89 C8
func (g *Generator) movRaxRcx() { g.text = append(g.text, 0x48, 0x89, 0xC8) }

// movR10Rax: mov r10, rax = 49 89 C2
func (g *Generator) movR10Rax() { g.text = append(g.text, 0x49, 0x89, 0xC2) }

// imulRaxRcx: imul rax, rcx = 48 0F AF C1
func (g *Generator) imulRaxRcx() { g.text = append(g.text, 0x48, 0x0F, 0xAF, 0xC1) }

// andRaxRcx: and rax, rcx = 48 21 C8
func (g *Generator) andRaxRcx() { g.text = append(g.text, 0x48, 0x21, 0xC8) }

// orRaxRcx: or rax, rcx = 48 09 C8
func (g *Generator) orRaxRcx() { g.text = append(g.text, 0x48, 0x09, 0xC8) }

// xorRaxRcx: xor rax, rcx = 48 31 C8
func (g *Generator) xorRaxRcx() { g.text = append(g.text, 0x48, 0x31, 0xC8) }

// cmpRcxRax: cmp rcx, rax = 48 39 C1
func (g *Generator) cmpRcxRax() { g.text = append(g.text, 0x48, 0x39, 0xC1) }

// movRdiRax: mov rdi, rax = 48 89 C7
func (g *Generator) movRdiRax() { g.text = append(g.text, 0x48, 0x89, 0xC7) }

// movRsiRax: mov rsi, rax = 48 89 C6
func (g *Generator) movRsiRax() { g.text = append(g.text, 0x48, 0x89, 0xC6) }

// callR14: call r14 = 41 FF D6
func (g *Generator) callR14() { g.text = append(g.text, 0x41, 0xFF, 0xD6) }

// callR15: call r15 = 41 FF D7
func (g *Generator) callR15() { g.text = append(g.text, 0x41, 0xFF, 0xD7) }

// emitJnz: jnz rel32 = 0F 85 <rel32-le>
func (g *Generator) emitJnz(labelID int) {
	g.text = append(g.text, 0x0F, 0x85)
	g.patches[len(g.text)] = labelID
	g.text = append(g.text, 0, 0, 0, 0)
}

// setccFromOp emits the setCC byte sequence matching a comparison operator,
// assuming `cmp rcx, rax` has just been executed (i.e. the flags reflect
// left-op-right in the natural order).
func (g *Generator) setccFromOp(op ast.BinaryOp) {
	var opcode byte
	switch op {
	case ast.OpEq:
		opcode = 0x94 // sete
	case ast.OpNe:
		opcode = 0x95 // setne
	case ast.OpLt:
		opcode = 0x9C // setl
	case ast.OpLe:
		opcode = 0x9E // setle
	case ast.OpGt:
		opcode = 0x9F // setg
	case ast.OpGe:
		opcode = 0x9D // setge
	}
	g.text = append(g.text, 0x0F, opcode, 0xC0)
}

// xchgRaxRcx: xchg rax, rcx = 48 87 C1
func (g *Generator) xchgRaxRcx() { g.text = append(g.text, 0x48, 0x87, 0xC1) }

// movRcxRaxThenShift swaps RAX/RCX (so the shift count, originally in RAX,
// lands in CL — the low byte of RCX — while the value to shift, originally
// in RCX, lands in RAX) and then shifts RAX by CL: xchg rax,rcx / shl|sar|shr
// rax,cl. `signed` selects an arithmetic (sar) vs. logical (shr) right
// shift; left shift has no signed/unsigned distinction.
func (g *Generator) movRcxRaxThenShift(op ast.BinaryOp, signed bool) {
	// At entry: RCX = left operand, RAX = right operand (shift count).
	g.xchgRaxRcx() // RAX = left, CL = right's low byte (shift count)
	switch {
	case op == ast.OpShl:
		g.text = append(g.text, 0x48, 0xD3, 0xE0) // shl rax, cl
	case signed:
		g.text = append(g.text, 0x48, 0xD3, 0xF8) // sar rax, cl
	default:
		g.text = append(g.text, 0x48, 0xD3, 0xE8) // shr rax, cl
	}
}

// popToRdi/.../popToR9 pop the next stacked call argument into the System V
// integer argument registers, up to six, per the call-argument convention.
func (g *Generator) popToRdi() { g.text = append(g.text, 0x5F) }                   // pop rdi
func (g *Generator) popToRsi() { g.text = append(g.text, 0x5E) }                   // pop rsi
func (g *Generator) popToRdx() { g.text = append(g.text, 0x5A) }                   // pop rdx
func (g *Generator) popToRcx() { g.text = append(g.text, 0x59) }                   // pop rcx
func (g *Generator) popToR8()  { g.text = append(g.text, 0x41, 0x58) }             // pop r8
func (g *Generator) popToR9()  { g.text = append(g.text, 0x41, 0x59) }             // pop r9

package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestType_SizeAlign(t *testing.T) {
	tests := []struct {
		name      string
		typ       *Type
		wantSize  int
		wantAlign int
	}{
		{"void", Void(), 0, 1},
		{"bool", Bool(), 1, 1},
		{"i8", I8(), 1, 1},
		{"i16", I16(), 2, 2},
		{"i32", I32(), 4, 4},
		{"i64", I64(), 8, 8},
		{"u8", U8(), 1, 1},
		{"u64", U64(), 8, 8},
		{"usize", Usize(), 8, 8},
		{"f32", F32(), 4, 4},
		{"f64", F64(), 8, 8},
		{"ptr to i32", NewPtr(I32()), 8, 8},
		{"bitint u5", NewBitInt(5, false), 1, 1},
		{"bitint i9", NewBitInt(9, true), 2, 2},
		{"bitint u17", NewBitInt(17, false), 4, 4},
		{"bitint u33", NewBitInt(33, false), 8, 8},
		{"bitint u65", NewBitInt(65, false), 16, 16},
		{"array 4 x i32", NewArray(4, I32()), 16, 4},
		{"array 3 x u8", NewArray(3, U8()), 3, 1},
		{"named", NewNamed("Point"), 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantSize, tt.typ.Size(), "Size")
			assert.Equal(t, tt.wantAlign, tt.typ.Align(), "Align")
		})
	}
}

func TestType_Equal(t *testing.T) {
	tests := []struct {
		name string
		a, b *Type
		want bool
	}{
		{"same scalar", I32(), I32(), true},
		{"different scalar", I32(), U32(), false},
		{"same bitint", NewBitInt(5, false), NewBitInt(5, false), true},
		{"bitint different width", NewBitInt(5, false), NewBitInt(6, false), false},
		{"bitint different sign", NewBitInt(5, false), NewBitInt(5, true), false},
		{"same ptr elem", NewPtr(I32()), NewPtr(I32()), true},
		{"ptr vs mut ptr", NewPtr(I32()), NewMutPtr(I32()), false},
		{"ptr different elem", NewPtr(I32()), NewPtr(I64()), false},
		{"same array", NewArray(4, I32()), NewArray(4, I32()), true},
		{"array different len", NewArray(4, I32()), NewArray(5, I32()), false},
		{"same named", NewNamed("Point"), NewNamed("Point"), true},
		{"different named", NewNamed("Point"), NewNamed("Line"), false},
		{
			"same func signature",
			NewFunc([]*Type{I32(), I32()}, Bool()),
			NewFunc([]*Type{I32(), I32()}, Bool()),
			true,
		},
		{
			"func different arity",
			NewFunc([]*Type{I32()}, Bool()),
			NewFunc([]*Type{I32(), I32()}, Bool()),
			false,
		},
		{
			"func different return",
			NewFunc([]*Type{I32()}, Bool()),
			NewFunc([]*Type{I32()}, Void()),
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Equal(tt.b))
			assert.Equal(t, tt.want, tt.b.Equal(tt.a), "Equal must be symmetric")
		})
	}
}

func TestType_Predicates(t *testing.T) {
	assert.True(t, I32().IsInteger())
	assert.True(t, NewBitInt(5, false).IsInteger())
	assert.False(t, F64().IsInteger())

	assert.True(t, F32().IsFloat())
	assert.False(t, I32().IsFloat())

	assert.True(t, NewPtr(I32()).IsPointer())
	assert.True(t, NewMutPtr(I32()).IsPointer())
	assert.True(t, NewConstPtr(I32()).IsPointer())
	assert.False(t, I32().IsPointer())

	assert.True(t, I32().IsSigned())
	assert.False(t, U32().IsSigned())
	assert.True(t, NewBitInt(5, true).IsSigned())
	assert.False(t, NewBitInt(5, false).IsSigned())
}

func TestType_String(t *testing.T) {
	assert.Equal(t, "i32", I32().String())
	assert.Equal(t, "u5", NewBitInt(5, false).String())
	assert.Equal(t, "i9", NewBitInt(9, true).String())
	assert.Equal(t, "*i32", NewPtr(I32()).String())
	assert.Equal(t, "*mut i32", NewMutPtr(I32()).String())
	assert.Equal(t, "*const i32", NewConstPtr(I32()).String())
	assert.Equal(t, "[4]i32", NewArray(4, I32()).String())
	assert.Equal(t, "Point", NewNamed("Point").String())
}

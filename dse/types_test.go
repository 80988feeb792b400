package dse

import "testing"

func TestDataTypeSizeOf(t *testing.T) {
	cases := []struct {
		typ  DataType
		size int
	}{
		{TypeUint8, 1}, {TypeInt8, 1}, {TypeU08, 1}, {TypeS07, 1},
		{TypeUint16, 2}, {TypeU88, 2}, {TypeS015, 2},
		{TypeUint32, 4}, {TypeU1616, 4}, {TypeS031, 4},
		{TypeUint64, 8}, {TypeU3232, 8}, {TypeS063, 8},
	}
	for _, c := range cases {
		got, err := c.typ.sizeOf()
		assert(t, err == nil, "unexpected error for type %#x: %v", c.typ, err)
		assert(t, got == c.size, "type %#x: expected size %d, got %d", c.typ, c.size, got)
	}
}

func TestDataTypeSizeOfUnknown(t *testing.T) {
	_, err := DataType(0xFF).sizeOf()
	assert(t, err == errBadDataType, "expected errBadDataType, got %v", err)
}

func TestDataTypeMaskTruncates(t *testing.T) {
	masked, err := TypeUint8.mask(0x1FF)
	assert(t, err == nil, "unexpected error: %v", err)
	assert(t, masked == 0xFF, "expected masked value 0xFF, got %#x", masked)
}

func TestStructElementMasking(t *testing.T) {
	var st StructTable
	assert(t, st.New(0, 1) == nil, "unexpected error creating struct")
	assert(t, st.SetElementType(0, 0, TypeUint16) == nil, "unexpected error setting type")
	assert(t, st.SetElementValue(0, 0, 0x1FFFF) == nil, "unexpected error setting value")

	s, err := st.Get(0)
	assert(t, err == nil, "unexpected error: %v", err)
	assert(t, s.Elements[0].Data == 0xFFFF, "expected masked value 0xFFFF, got %#x", s.Elements[0].Data)
}

func TestCallStackOverflow(t *testing.T) {
	var cs CallStack
	for i := 0; i < maxCallStackDepth; i++ {
		assert(t, cs.Push(callFrame{}) == nil, "unexpected push failure at depth %d", i)
	}
	err := cs.Push(callFrame{})
	assert(t, err == errCallStackFull, "expected errCallStackFull, got %v", err)
}

func TestCallStackUnderflow(t *testing.T) {
	var cs CallStack
	_, err := cs.Pop()
	assert(t, err == errCallStackEmpty, "expected errCallStackEmpty, got %v", err)
}

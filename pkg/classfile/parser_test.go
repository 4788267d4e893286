package classfile

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

// classBuilder assembles a minimal, well-formed .class byte stream for
// tests, since no compiled .class fixtures ship with this repo (test
// inputs are built the way the interpreter's own tests build bytecode by
// hand, per the harness protocol).
type classBuilder struct {
	buf      bytes.Buffer
	pool     []interface{}
	poolSize uint16 // next free index, starting at 1
}

func newClassBuilder() *classBuilder {
	return &classBuilder{poolSize: 1}
}

// utf8 interns a Utf8 constant and returns its index.
func (b *classBuilder) utf8(s string) uint16 {
	idx := b.poolSize
	b.poolSize++
	b.pool = append(b.pool, struct {
		tag uint8
		s   string
	}{TagUtf8, s})
	return idx
}

func (b *classBuilder) class(nameIdx uint16) uint16 {
	idx := b.poolSize
	b.poolSize++
	b.pool = append(b.pool, struct {
		tag uint8
		a   uint16
	}{TagClass, nameIdx})
	return idx
}

func (b *classBuilder) writeU1(v uint8)  { b.buf.WriteByte(v) }
func (b *classBuilder) writeU2(v uint16) { binary.Write(&b.buf, binary.BigEndian, v) }
func (b *classBuilder) writeU4(v uint32) { binary.Write(&b.buf, binary.BigEndian, v) }

func (b *classBuilder) writeConstantPool() {
	b.writeU2(b.poolSize)
	for _, e := range b.pool {
		switch v := e.(type) {
		case struct {
			tag uint8
			s   string
		}:
			b.writeU1(v.tag)
			b.writeU2(uint16(len(v.s)))
			b.buf.WriteString(v.s)
		case struct {
			tag uint8
			a   uint16
		}:
			b.writeU1(v.tag)
			b.writeU2(v.a)
		}
	}
}

// buildAddClass assembles a class named "Add" with one static method
// add(II)I whose body is ILOAD_0, ILOAD_1, IADD, IRETURN, and an empty
// interfaces/fields table.
func buildAddClass(t *testing.T) []byte {
	t.Helper()
	b := newClassBuilder()

	nameAdd := b.utf8("Add")
	nameObject := b.utf8("java/lang/Object")
	classAdd := b.class(nameAdd)
	classObject := b.class(nameObject)
	methodName := b.utf8("add")
	methodDesc := b.utf8("(II)I")
	codeName := b.utf8("Code")

	var out bytes.Buffer
	binary.Write(&out, binary.BigEndian, uint32(classMagic))
	binary.Write(&out, binary.BigEndian, uint16(0))  // minor
	binary.Write(&out, binary.BigEndian, uint16(52)) // major (Java 8)

	b.writeConstantPool()
	out.Write(b.buf.Bytes())

	binary.Write(&out, binary.BigEndian, uint16(AccPublic|AccSuper)) // access_flags
	binary.Write(&out, binary.BigEndian, classAdd)                   // this_class
	binary.Write(&out, binary.BigEndian, classObject)                // super_class
	binary.Write(&out, binary.BigEndian, uint16(0))                  // interfaces_count
	binary.Write(&out, binary.BigEndian, uint16(0))                  // fields_count

	// methods_count = 1
	binary.Write(&out, binary.BigEndian, uint16(1))
	binary.Write(&out, binary.BigEndian, uint16(AccPublic|AccStatic)) // access_flags
	binary.Write(&out, binary.BigEndian, methodName)
	binary.Write(&out, binary.BigEndian, methodDesc)
	binary.Write(&out, binary.BigEndian, uint16(1)) // attributes_count

	code := []byte{0x1A, 0x1B, 0x60, 0xAC} // iload_0, iload_1, iadd, ireturn
	var codeBody bytes.Buffer
	binary.Write(&codeBody, binary.BigEndian, uint16(2)) // max_stack
	binary.Write(&codeBody, binary.BigEndian, uint16(2)) // max_locals
	binary.Write(&codeBody, binary.BigEndian, uint32(len(code)))
	codeBody.Write(code)
	binary.Write(&codeBody, binary.BigEndian, uint16(0)) // exception_table_length
	binary.Write(&codeBody, binary.BigEndian, uint16(0)) // attributes_count

	binary.Write(&out, binary.BigEndian, codeName)
	binary.Write(&out, binary.BigEndian, uint32(codeBody.Len()))
	out.Write(codeBody.Bytes())

	binary.Write(&out, binary.BigEndian, uint16(0)) // class attributes_count

	return out.Bytes()
}

func TestParseAddClass(t *testing.T) {
	cf, err := Parse(bytes.NewReader(buildAddClass(t)))
	require.NoError(t, err)
	require.EqualValues(t, 52, cf.MajorVersion)

	name, err := cf.ClassName()
	require.NoError(t, err)
	require.Equal(t, "Add", name)

	add := cf.FindMethod("add", "(II)I")
	require.NotNil(t, add)
	require.NotNil(t, add.Code)
	require.Equal(t, []byte{0x1A, 0x1B, 0x60, 0xAC}, add.Code.Code)
	require.EqualValues(t, 2, add.Code.MaxStack)
	require.EqualValues(t, 2, add.Code.MaxLocals)
}

func TestParseInvalidMagic(t *testing.T) {
	_, err := Parse(bytes.NewReader([]byte{0xDE, 0xAD, 0xBE, 0xEF}))
	require.Error(t, err)
}

func TestParseTruncated(t *testing.T) {
	full := buildAddClass(t)
	_, err := Parse(bytes.NewReader(full[:10]))
	require.Error(t, err)
}

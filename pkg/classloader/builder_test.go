package classloader

import (
	"bytes"
	"encoding/binary"
)

// assembleMinimalClass builds the bytes of a minimal well-formed .class
// file for className with 0 fields and 0 methods, and superclass
// superName (empty for java/lang/Object itself).
func assembleMinimalClass(className, superName string) []byte {
	const (
		tagUtf8  = 1
		tagClass = 7
	)

	var pool bytes.Buffer
	var count uint16 = 1 // slot 0 is unused

	writeUtf8 := func(s string) uint16 {
		idx := count
		count++
		pool.WriteByte(tagUtf8)
		binary.Write(&pool, binary.BigEndian, uint16(len(s)))
		pool.WriteString(s)
		return idx
	}
	writeClass := func(nameIdx uint16) uint16 {
		idx := count
		count++
		pool.WriteByte(tagClass)
		binary.Write(&pool, binary.BigEndian, nameIdx)
		return idx
	}

	nameIdx := writeUtf8(className)
	classIdx := writeClass(nameIdx)

	var superIdx uint16
	if superName != "" {
		superNameIdx := writeUtf8(superName)
		superIdx = writeClass(superNameIdx)
	}

	var out bytes.Buffer
	binary.Write(&out, binary.BigEndian, uint32(0xCAFEBABE))
	binary.Write(&out, binary.BigEndian, uint16(0))  // minor
	binary.Write(&out, binary.BigEndian, uint16(52)) // major

	binary.Write(&out, binary.BigEndian, count)
	out.Write(pool.Bytes())

	binary.Write(&out, binary.BigEndian, uint16(0x0021)) // access_flags: PUBLIC|SUPER
	binary.Write(&out, binary.BigEndian, classIdx)       // this_class
	binary.Write(&out, binary.BigEndian, superIdx)       // super_class
	binary.Write(&out, binary.BigEndian, uint16(0))      // interfaces_count
	binary.Write(&out, binary.BigEndian, uint16(0))      // fields_count
	binary.Write(&out, binary.BigEndian, uint16(0))      // methods_count
	binary.Write(&out, binary.BigEndian, uint16(0))      // class attributes_count

	return out.Bytes()
}

package classfile

import (
	"math"

	"github.com/gojvm/gojvm/internal/jvmerr"
)

// Constant pool tags, JVMS Table 4.4-A.
const (
	TagUtf8               = 1
	TagInteger            = 3
	TagFloat              = 4
	TagLong               = 5
	TagDouble             = 6
	TagClass              = 7
	TagString             = 8
	TagFieldref           = 9
	TagMethodref          = 10
	TagInterfaceMethodref = 11
	TagNameAndType        = 12
	TagMethodHandle       = 15
	TagMethodType         = 16
	TagInvokeDynamic      = 18
)

// ConstantPoolEntry is one 1-indexed slot of the static constant pool. Long
// and Double entries occupy two consecutive indices; the second index holds
// a ConstantPlaceholder, matching JVMS 4.4.5.
type ConstantPoolEntry interface {
	Tag() uint8
}

type ConstantPlaceholder struct{}

func (ConstantPlaceholder) Tag() uint8 { return 0 }

type ConstantUtf8 struct{ Value string }

func (ConstantUtf8) Tag() uint8 { return TagUtf8 }

type ConstantInteger struct{ Value int32 }

func (ConstantInteger) Tag() uint8 { return TagInteger }

type ConstantFloat struct{ Value float32 }

func (ConstantFloat) Tag() uint8 { return TagFloat }

type ConstantLong struct{ Value int64 }

func (ConstantLong) Tag() uint8 { return TagLong }

type ConstantDouble struct{ Value float64 }

func (ConstantDouble) Tag() uint8 { return TagDouble }

type ConstantClass struct{ NameIndex uint16 }

func (ConstantClass) Tag() uint8 { return TagClass }

type ConstantString struct{ StringIndex uint16 }

func (ConstantString) Tag() uint8 { return TagString }

type ConstantFieldref struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (ConstantFieldref) Tag() uint8 { return TagFieldref }

type ConstantMethodref struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (ConstantMethodref) Tag() uint8 { return TagMethodref }

type ConstantInterfaceMethodref struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (ConstantInterfaceMethodref) Tag() uint8 { return TagInterfaceMethodref }

type ConstantNameAndType struct {
	NameIndex       uint16
	DescriptorIndex uint16
}

func (ConstantNameAndType) Tag() uint8 { return TagNameAndType }

// ConstantMethodHandle and ConstantMethodType are retained unresolved: this
// VM never invokes invokedynamic call sites, but the parser still has to
// walk past them to reach later constant pool entries correctly.
type ConstantMethodHandle struct {
	ReferenceKind  uint8
	ReferenceIndex uint16
}

func (ConstantMethodHandle) Tag() uint8 { return TagMethodHandle }

type ConstantMethodType struct{ DescriptorIndex uint16 }

func (ConstantMethodType) Tag() uint8 { return TagMethodType }

type ConstantInvokeDynamic struct {
	BootstrapMethodAttrIndex uint16
	NameAndTypeIndex         uint16
}

func (ConstantInvokeDynamic) Tag() uint8 { return TagInvokeDynamic }

// ConstantPool is the 1-indexed static constant pool of a class file.
// Index 0 is unused; Long/Double entries occupy their index and the one
// immediately following, per JVMS 4.4.5.
type ConstantPool []ConstantPoolEntry

// ParseConstantPool reads `count-1` entries (count includes the unused slot
// 0, per constant_pool_count in JVMS 4.1).
func ParseConstantPool(r *Reader, count uint16) (ConstantPool, error) {
	pool := make(ConstantPool, count)
	for i := uint16(1); i < count; i++ {
		tag, err := r.ReadU1()
		if err != nil {
			return nil, jvmerr.Wrap(jvmerr.MalformedClass, err, "reading constant pool tag at index %d", i)
		}
		entry, wide, err := parseConstantEntry(r, tag)
		if err != nil {
			return nil, err
		}
		pool[i] = entry
		if wide {
			// Long/Double occupy two slots; the next index is unusable.
			i++
			if i < count {
				pool[i] = ConstantPlaceholder{}
			}
		}
	}
	return pool, nil
}

func parseConstantEntry(r *Reader, tag uint8) (entry ConstantPoolEntry, wide bool, err error) {
	switch tag {
	case TagUtf8:
		length, err := r.ReadU2()
		if err != nil {
			return nil, false, err
		}
		raw, err := r.ReadBytes(int(length))
		if err != nil {
			return nil, false, err
		}
		return ConstantUtf8{Value: string(raw)}, false, nil
	case TagInteger:
		v, err := r.ReadU4()
		if err != nil {
			return nil, false, err
		}
		return ConstantInteger{Value: int32(v)}, false, nil
	case TagFloat:
		v, err := r.ReadU4()
		if err != nil {
			return nil, false, err
		}
		return ConstantFloat{Value: math.Float32frombits(v)}, false, nil
	case TagLong:
		v, err := r.ReadU8()
		if err != nil {
			return nil, false, err
		}
		return ConstantLong{Value: int64(v)}, true, nil
	case TagDouble:
		v, err := r.ReadU8()
		if err != nil {
			return nil, false, err
		}
		return ConstantDouble{Value: math.Float64frombits(v)}, true, nil
	case TagClass:
		idx, err := r.ReadU2()
		if err != nil {
			return nil, false, err
		}
		return ConstantClass{NameIndex: idx}, false, nil
	case TagString:
		idx, err := r.ReadU2()
		if err != nil {
			return nil, false, err
		}
		return ConstantString{StringIndex: idx}, false, nil
	case TagFieldref:
		c, n, err := readClassNameAndType(r)
		if err != nil {
			return nil, false, err
		}
		return ConstantFieldref{ClassIndex: c, NameAndTypeIndex: n}, false, nil
	case TagMethodref:
		c, n, err := readClassNameAndType(r)
		if err != nil {
			return nil, false, err
		}
		return ConstantMethodref{ClassIndex: c, NameAndTypeIndex: n}, false, nil
	case TagInterfaceMethodref:
		c, n, err := readClassNameAndType(r)
		if err != nil {
			return nil, false, err
		}
		return ConstantInterfaceMethodref{ClassIndex: c, NameAndTypeIndex: n}, false, nil
	case TagNameAndType:
		n, d, err := readClassNameAndType(r)
		if err != nil {
			return nil, false, err
		}
		return ConstantNameAndType{NameIndex: n, DescriptorIndex: d}, false, nil
	case TagMethodHandle:
		kind, err := r.ReadU1()
		if err != nil {
			return nil, false, err
		}
		idx, err := r.ReadU2()
		if err != nil {
			return nil, false, err
		}
		return ConstantMethodHandle{ReferenceKind: kind, ReferenceIndex: idx}, false, nil
	case TagMethodType:
		idx, err := r.ReadU2()
		if err != nil {
			return nil, false, err
		}
		return ConstantMethodType{DescriptorIndex: idx}, false, nil
	case TagInvokeDynamic:
		bsm, nt, err := readClassNameAndType(r)
		if err != nil {
			return nil, false, err
		}
		return ConstantInvokeDynamic{BootstrapMethodAttrIndex: bsm, NameAndTypeIndex: nt}, false, nil
	default:
		return nil, false, jvmerr.New(jvmerr.InvalidTag, "unknown constant pool tag %d", tag)
	}
}

func readClassNameAndType(r *Reader) (uint16, uint16, error) {
	a, err := r.ReadU2()
	if err != nil {
		return 0, 0, err
	}
	b, err := r.ReadU2()
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

// Utf8At returns the Utf8 string at index, failing with MalformedClass if
// the index is out of range or not a Utf8 entry.
func (p ConstantPool) Utf8At(index uint16) (string, error) {
	entry, err := p.entryAt(index)
	if err != nil {
		return "", err
	}
	u, ok := entry.(ConstantUtf8)
	if !ok {
		return "", jvmerr.New(jvmerr.MalformedClass, "constant pool index %d is not Utf8", index)
	}
	return u.Value, nil
}

// ClassNameAt resolves a Class entry's name index to its binary class name.
func (p ConstantPool) ClassNameAt(index uint16) (string, error) {
	entry, err := p.entryAt(index)
	if err != nil {
		return "", err
	}
	c, ok := entry.(ConstantClass)
	if !ok {
		return "", jvmerr.New(jvmerr.MalformedClass, "constant pool index %d is not Class", index)
	}
	return p.Utf8At(c.NameIndex)
}

// NameAndTypeAt resolves a NameAndType entry to (name, descriptor) strings.
func (p ConstantPool) NameAndTypeAt(index uint16) (name, descriptor string, err error) {
	entry, err := p.entryAt(index)
	if err != nil {
		return "", "", err
	}
	nt, ok := entry.(ConstantNameAndType)
	if !ok {
		return "", "", jvmerr.New(jvmerr.MalformedClass, "constant pool index %d is not NameAndType", index)
	}
	name, err = p.Utf8At(nt.NameIndex)
	if err != nil {
		return "", "", err
	}
	descriptor, err = p.Utf8At(nt.DescriptorIndex)
	if err != nil {
		return "", "", err
	}
	return name, descriptor, nil
}

func (p ConstantPool) entryAt(index uint16) (ConstantPoolEntry, error) {
	if int(index) <= 0 || int(index) >= len(p) {
		return nil, jvmerr.New(jvmerr.MalformedClass, "constant pool index %d out of range [1, %d)", index, len(p))
	}
	return p[index], nil
}

// EntryAt exposes the raw entry for callers (e.g. runtime constant-pool
// preparation) that need to switch on concrete type.
func (p ConstantPool) EntryAt(index uint16) (ConstantPoolEntry, error) {
	return p.entryAt(index)
}

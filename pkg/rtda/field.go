package rtda

import "github.com/gojvm/gojvm/pkg/classfile"

// Field is the runtime mirror of a field_info, carrying the slot index it
// was assigned during preparation (§4.6). Instance and static fields share
// this type; which counter assigned SlotIndex is recorded by IsStatic.
type Field struct {
	Owner       *Klass
	Name        string
	Descriptor  string
	AccessFlags uint16
	SlotIndex   int
}

// IsStatic reports whether ACC_STATIC is set.
func (f *Field) IsStatic() bool { return f.AccessFlags&classfile.AccStatic != 0 }

// SlotWidth returns 2 for long/double descriptors and 1 otherwise, per
// JVMS 2.6.1/2.6.2 — used by the slot-index counters in §4.6.
func SlotWidth(descriptor string) int {
	if len(descriptor) > 0 && (descriptor[0] == 'J' || descriptor[0] == 'D') {
		return 2
	}
	return 1
}

func newField(owner *Klass, info classfile.FieldInfo, slotIndex int) *Field {
	return &Field{
		Owner:       owner,
		Name:        info.Name,
		Descriptor:  info.Descriptor,
		AccessFlags: info.AccessFlags,
		SlotIndex:   slotIndex,
	}
}

// DefaultSlotValue returns the JVMS 2.3/2.4 default for a field descriptor:
// 0 for numeric primitives, nil for references and arrays.
func DefaultSlotValue(descriptor string) Slot {
	if len(descriptor) == 0 {
		return ZeroSlot
	}
	switch descriptor[0] {
	case 'L', '[':
		return RefSlot(nil)
	case 'F':
		return FloatSlot(0)
	case 'D':
		return DoubleSlot(0)
	case 'J':
		return LongSlot(0)
	default:
		return IntSlot(0)
	}
}

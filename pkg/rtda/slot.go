// Package rtda implements the runtime data area: the Klass/Method/Field
// mirror model, the runtime constant pool, the method area, and the
// frame/thread call-stack machinery that the interpreter drives.
package rtda

import "math"

// Slot is the 64-bit tagless union the operand stack and local variable
// array are built from, mirroring the C union in the system this package
// is modeled on (Jint/Jfloat/Jlong/Jdouble share one bit pattern; Jref is
// kept out-of-band since Go has no union types). Long and Double values
// occupy two consecutive Slots: on the operand stack a placeholder followed
// by the value slot, in local variables the value slot followed by a
// placeholder.
type Slot struct {
	bits uint64
	ref  interface{}
}

// IntSlot builds a Slot holding a 32-bit int.
func IntSlot(v int32) Slot { return Slot{bits: uint64(uint32(v))} }

// Int reads this Slot as a 32-bit int.
func (s Slot) Int() int32 { return int32(uint32(s.bits)) }

// FloatSlot builds a Slot holding a 32-bit float.
func FloatSlot(v float32) Slot { return Slot{bits: uint64(math.Float32bits(v))} }

// Float reads this Slot as a 32-bit float.
func (s Slot) Float() float32 { return math.Float32frombits(uint32(s.bits)) }

// LongSlot builds a Slot holding a 64-bit long.
func LongSlot(v int64) Slot { return Slot{bits: uint64(v)} }

// Long reads this Slot as a 64-bit long.
func (s Slot) Long() int64 { return int64(s.bits) }

// DoubleSlot builds a Slot holding a 64-bit double.
func DoubleSlot(v float64) Slot { return Slot{bits: math.Float64bits(v)} }

// Double reads this Slot as a 64-bit double.
func (s Slot) Double() float64 { return math.Float64frombits(s.bits) }

// RefSlot builds a Slot holding an object reference. nil represents the
// null reference.
func RefSlot(v interface{}) Slot { return Slot{ref: v} }

// Ref reads this Slot as an object reference.
func (s Slot) Ref() interface{} { return s.ref }

// ZeroSlot is the default value for every primitive kind (0 / 0.0 / null),
// used to initialize local variables and static fields per JVMS 2.3/2.4.
var ZeroSlot = Slot{}

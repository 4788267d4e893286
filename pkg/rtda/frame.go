package rtda

import "github.com/gojvm/gojvm/internal/jvmerr"

// OperandStack is the bounded value stack each Frame carries. Long and
// Double values are pushed as two Slots: a zero placeholder first, then the
// value itself, so PopInt/PopLong/... consume the number of Slots JVMS
// requires without the stack needing to track per-slot type tags.
type OperandStack struct {
	slots []Slot
	sp    int
}

// NewOperandStack allocates a stack with the given maximum depth in Slots,
// taken directly from the Code attribute's max_stack.
func NewOperandStack(maxStack uint16) *OperandStack {
	return &OperandStack{slots: make([]Slot, maxStack)}
}

func (s *OperandStack) push(v Slot) {
	if s.sp >= len(s.slots) {
		panic("operand stack overflow")
	}
	s.slots[s.sp] = v
	s.sp++
}

func (s *OperandStack) pop() Slot {
	if s.sp <= 0 {
		panic("operand stack underflow")
	}
	s.sp--
	return s.slots[s.sp]
}

func (s *OperandStack) PushInt(v int32)      { s.push(IntSlot(v)) }
func (s *OperandStack) PopInt() int32        { return s.pop().Int() }
func (s *OperandStack) PushFloat(v float32)  { s.push(FloatSlot(v)) }
func (s *OperandStack) PopFloat() float32    { return s.pop().Float() }
func (s *OperandStack) PushRef(v interface{}) { s.push(RefSlot(v)) }
func (s *OperandStack) PopRef() interface{}  { return s.pop().Ref() }

// PushLong pushes a placeholder slot then the value slot, so two Pops (one
// discarded) are needed to restore it, matching the two-slot convention.
func (s *OperandStack) PushLong(v int64) {
	s.push(ZeroSlot)
	s.push(LongSlot(v))
}

func (s *OperandStack) PopLong() int64 {
	v := s.pop().Long()
	s.pop() // discard placeholder
	return v
}

func (s *OperandStack) PushDouble(v float64) {
	s.push(ZeroSlot)
	s.push(DoubleSlot(v))
}

func (s *OperandStack) PopDouble() float64 {
	v := s.pop().Double()
	s.pop() // discard placeholder
	return v
}

// PushSlot/PopSlot move a raw Slot, used by generic stack ops (DUP, SWAP,
// POP) that don't know the category of the value they're moving.
func (s *OperandStack) PushSlot(v Slot) { s.push(v) }
func (s *OperandStack) PopSlot() Slot   { return s.pop() }

// PeekSlot returns the slot n positions below the top without popping (0 is
// the top itself).
func (s *OperandStack) PeekSlot(depthFromTop int) Slot {
	return s.slots[s.sp-1-depthFromTop]
}

// Size reports the number of occupied slots.
func (s *OperandStack) Size() int { return s.sp }

// LocalVariables is the fixed-size array of Slots a Frame's locals live in.
// Long/Double values occupy two consecutive indices, index and index+1.
type LocalVariables struct {
	slots []Slot
}

// NewLocalVariables allocates a locals array sized from max_locals.
func NewLocalVariables(maxLocals uint16) *LocalVariables {
	return &LocalVariables{slots: make([]Slot, maxLocals)}
}

func (l *LocalVariables) checkBounds(index int) error {
	if index < 0 || index >= len(l.slots) {
		return jvmerr.New(jvmerr.OutOfBounds, "local variable index %d out of range [0, %d)", index, len(l.slots))
	}
	return nil
}

func (l *LocalVariables) SetInt(index int, v int32) { l.mustBounds(index); l.slots[index] = IntSlot(v) }
func (l *LocalVariables) GetInt(index int) int32    { l.mustBounds(index); return l.slots[index].Int() }

func (l *LocalVariables) SetFloat(index int, v float32) {
	l.mustBounds(index)
	l.slots[index] = FloatSlot(v)
}
func (l *LocalVariables) GetFloat(index int) float32 {
	l.mustBounds(index)
	return l.slots[index].Float()
}

func (l *LocalVariables) SetLong(index int, v int64) {
	l.mustBounds(index)
	l.slots[index] = LongSlot(v)
	l.mustBounds(index + 1)
	l.slots[index+1] = ZeroSlot
}
func (l *LocalVariables) GetLong(index int) int64 {
	l.mustBounds(index)
	return l.slots[index].Long()
}

func (l *LocalVariables) SetDouble(index int, v float64) {
	l.mustBounds(index)
	l.slots[index] = DoubleSlot(v)
	l.mustBounds(index + 1)
	l.slots[index+1] = ZeroSlot
}
func (l *LocalVariables) GetDouble(index int) float64 {
	l.mustBounds(index)
	return l.slots[index].Double()
}

func (l *LocalVariables) SetRef(index int, v interface{}) {
	l.mustBounds(index)
	l.slots[index] = RefSlot(v)
}
func (l *LocalVariables) GetRef(index int) interface{} {
	l.mustBounds(index)
	return l.slots[index].Ref()
}

func (l *LocalVariables) SetSlot(index int, v Slot) { l.mustBounds(index); l.slots[index] = v }
func (l *LocalVariables) GetSlot(index int) Slot    { l.mustBounds(index); return l.slots[index] }

func (l *LocalVariables) mustBounds(index int) {
	if err := l.checkBounds(index); err != nil {
		panic(err)
	}
}

// Size reports the number of local variable slots.
func (l *LocalVariables) Size() int { return len(l.slots) }

// Frame is one activation record: a method's local variables, operand
// stack, and program counter. Frames are owned exclusively by the Thread's
// call stack — a Frame is never shared or referenced after it is popped.
// The caller resumes at whatever PC it already had; a frame does not need
// to remember it separately.
type Frame struct {
	Method *Method
	Locals *LocalVariables
	Stack  *OperandStack
	PC     int
}

// NewFrame allocates a Frame sized from the method's Code attribute.
func NewFrame(method *Method) *Frame {
	return &Frame{
		Method: method,
		Locals: NewLocalVariables(method.MaxLocals),
		Stack:  NewOperandStack(method.MaxStack),
	}
}

// Code returns the bytecode array this frame executes.
func (f *Frame) Code() []byte { return f.Method.Code }

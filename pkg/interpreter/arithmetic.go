package interpreter

import (
	"math"

	"github.com/gojvm/gojvm/internal/jvmerr"
	"github.com/gojvm/gojvm/pkg/rtda"
)

// floatToInt implements F2I, JVMS 6.5.f2i: both NaN and ±infinity become
// 0, matching the source behavior this repo preserves (§9 open question 3)
// rather than JVMS's later saturating revision.
func floatToInt(v float32) int32 {
	f := float64(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int32(f)
}

// floatToLong implements F2L, JVMS 6.5.f2l: NaN and ±infinity become 0.
func floatToLong(v float32) int64 {
	f := float64(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int64(f)
}

// doubleToInt implements D2I, JVMS 6.5.d2i: NaN and ±infinity become 0.
func doubleToInt(v float64) int32 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int32(v)
}

// doubleToLong implements D2L, JVMS 6.5.d2l: NaN and ±infinity become 0.
func doubleToLong(v float64) int64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int64(v)
}

func longCompare(a, b int64) int32 {
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	default:
		return 0
	}
}

// floatCompare implements FCMPL/FCMPG, JVMS 6.5.fcmp<op>: nanResult is the
// value pushed when either operand is NaN (-1 for FCMPL, 1 for FCMPG).
func floatCompare(a, b float32, nanResult int32) int32 {
	if math.IsNaN(float64(a)) || math.IsNaN(float64(b)) {
		return nanResult
	}
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	default:
		return 0
	}
}

// doubleCompare implements DCMPL/DCMPG, JVMS 6.5.dcmp<op>.
func doubleCompare(a, b float64, nanResult int32) int32 {
	if math.IsNaN(a) || math.IsNaN(b) {
		return nanResult
	}
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	default:
		return 0
	}
}

func branchIfUnary(frame *rtda.Frame, opcode byte) {
	branchPC := frame.PC - 1
	offset := int16(readU2(frame))
	v := frame.Stack.PopInt()
	if unaryTaken(opcode, v) {
		frame.PC = branchPC + int(offset)
	}
}

func unaryTaken(opcode byte, v int32) bool {
	switch opcode {
	case opIfeq:
		return v == 0
	case opIfne:
		return v != 0
	case opIflt:
		return v < 0
	case opIfge:
		return v >= 0
	case opIfgt:
		return v > 0
	case opIfle:
		return v <= 0
	default:
		return false
	}
}

func branchIfIcmp(frame *rtda.Frame, opcode byte) {
	branchPC := frame.PC - 1
	offset := int16(readU2(frame))
	b, a := frame.Stack.PopInt(), frame.Stack.PopInt()
	if icmpTaken(opcode, a, b) {
		frame.PC = branchPC + int(offset)
	}
}

func icmpTaken(opcode byte, a, b int32) bool {
	switch opcode {
	case opIfIcmpeq:
		return a == b
	case opIfIcmpne:
		return a != b
	case opIfIcmplt:
		return a < b
	case opIfIcmpge:
		return a >= b
	case opIfIcmpgt:
		return a > b
	case opIfIcmple:
		return a <= b
	default:
		return false
	}
}

func branchIfAcmp(frame *rtda.Frame, opcode byte) {
	branchPC := frame.PC - 1
	offset := int16(readU2(frame))
	b, a := frame.Stack.PopRef(), frame.Stack.PopRef()
	taken := a == b
	if opcode == opIfAcmpne {
		taken = !taken
	}
	if taken {
		frame.PC = branchPC + int(offset)
	}
}

func (in *Interpreter) executeLdc(frame *rtda.Frame, index uint16) error {
	v, err := frame.Method.Owner.ConstantPool.ResolveLiteralOrString(index)
	if err != nil {
		return err
	}
	switch val := v.(type) {
	case int32:
		frame.Stack.PushInt(val)
	case float32:
		frame.Stack.PushFloat(val)
	case string:
		frame.Stack.PushRef(val)
	default:
		return jvmerr.New(jvmerr.MalformedClass, "ldc index %d does not resolve to a category-1 constant", index)
	}
	return nil
}

func (in *Interpreter) executeLdc2(frame *rtda.Frame, index uint16) error {
	v, err := frame.Method.Owner.ConstantPool.ResolveLiteralOrString(index)
	if err != nil {
		return err
	}
	switch val := v.(type) {
	case int64:
		frame.Stack.PushLong(val)
	case float64:
		frame.Stack.PushDouble(val)
	default:
		return jvmerr.New(jvmerr.MalformedClass, "ldc2_w index %d does not resolve to a category-2 constant", index)
	}
	return nil
}

// executeTableswitch implements JVMS 6.5.tableswitch. Padding aligns the
// operands to the next 4-byte boundary measured from the method's own code
// array (i.e. relative to the opcode's own byte position), per §9 open
// question 7.
func (in *Interpreter) executeTableswitch(frame *rtda.Frame) error {
	opcodePC := frame.PC - 1
	for frame.PC%4 != 0 {
		frame.PC++
	}
	defaultOffset := int32(readU4(frame))
	low := int32(readU4(frame))
	high := int32(readU4(frame))
	if high < low {
		return jvmerr.New(jvmerr.MalformedClass, "tableswitch has high (%d) < low (%d)", high, low)
	}
	index := frame.Stack.PopInt()
	if index < low || index > high {
		frame.PC = opcodePC + int(defaultOffset)
		return nil
	}
	skip := int(index-low) * 4
	offset := int32(readU4ConsumeOffset(frame, skip))
	frame.PC = opcodePC + int(offset)
	return nil
}

// executeLookupswitch implements JVMS 6.5.lookupswitch.
func (in *Interpreter) executeLookupswitch(frame *rtda.Frame) error {
	opcodePC := frame.PC - 1
	for frame.PC%4 != 0 {
		frame.PC++
	}
	defaultOffset := int32(readU4(frame))
	npairs := int32(readU4(frame))
	if npairs < 0 {
		return jvmerr.New(jvmerr.MalformedClass, "lookupswitch has negative npairs %d", npairs)
	}
	key := frame.Stack.PopInt()
	offset := defaultOffset
	for i := int32(0); i < npairs; i++ {
		match := int32(readU4(frame))
		val := int32(readU4(frame))
		if match == key {
			offset = val
		}
	}
	frame.PC = opcodePC + int(offset)
	return nil
}

// readU4ConsumeOffset reads the 4-byte entry skip bytes past the current
// PC and leaves PC just past that entry; the caller then overwrites PC
// with the branch target.
func readU4ConsumeOffset(frame *rtda.Frame, skip int) uint32 {
	pos := frame.PC + skip
	b := frame.Code()[pos : pos+4]
	frame.PC = pos + 4
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func (in *Interpreter) executeGetstatic(frame *rtda.Frame, index uint16) error {
	f, err := frame.Method.Owner.ConstantPool.ResolveField(index)
	if err != nil {
		return err
	}
	if err := f.Owner.EnsureInitialized(func(m *rtda.Method) error { return in.invokeSync(m) }); err != nil {
		return err
	}
	frame.Stack.PushSlot(f.Owner.GetStaticSlot(f))
	return nil
}

func (in *Interpreter) executePutstatic(frame *rtda.Frame, index uint16) error {
	f, err := frame.Method.Owner.ConstantPool.ResolveField(index)
	if err != nil {
		return err
	}
	if err := f.Owner.EnsureInitialized(func(m *rtda.Method) error { return in.invokeSync(m) }); err != nil {
		return err
	}
	f.Owner.SetStaticSlot(f, frame.Stack.PopSlot())
	return nil
}

// invokeSync runs m to completion on a fresh, private Thread. Static
// initializers (<clinit>) need their own call stack: they run to full
// completion before the triggering GETSTATIC/PUTSTATIC/INVOKESTATIC
// resumes, and must not interleave frames with the caller's thread.
func (in *Interpreter) invokeSync(m *rtda.Method) error {
	t := rtda.NewThread()
	if err := t.PushFrame(rtda.NewFrame(m)); err != nil {
		return err
	}
	return in.Interpret(t)
}

func (in *Interpreter) executeInvokestatic(thread *rtda.Thread, frame *rtda.Frame, index uint16) error {
	m, err := frame.Method.Owner.ConstantPool.ResolveMethod(index)
	if err != nil {
		return err
	}
	if !m.IsStatic() {
		return jvmerr.New(jvmerr.IncompatibleMethodCall, "%s.%s%s is not static", mustOwnerName(m), m.Name, m.Descriptor)
	}
	if err := m.Owner.EnsureInitialized(func(clinit *rtda.Method) error { return in.invokeSync(clinit) }); err != nil {
		return err
	}
	if m.IsNative() || m.IsAbstract() || m.Code == nil {
		return jvmerr.New(jvmerr.Unimplemented, "native/abstract method invocation is out of scope: %s.%s%s", mustOwnerName(m), m.Name, m.Descriptor)
	}

	categories, err := ParamCategories(m.Descriptor)
	if err != nil {
		return err
	}

	callee := rtda.NewFrame(m)
	if err := transferArguments(frame, callee, categories); err != nil {
		return err
	}

	return thread.PushFrame(callee)
}

// transferArguments pops arguments off caller's operand stack, in reverse
// declaration order, and installs them into callee's local variable array
// starting at index 0, using typed accessors so the long/double two-slot
// convention (value at the low index, zero placeholder at the high index)
// is preserved rather than carried over positionally from the operand
// stack's own placeholder-then-value layout.
func transferArguments(caller, callee *rtda.Frame, categories []byte) error {
	localIndex := 0
	for _, c := range categories {
		switch c {
		case 'J', 'D':
			localIndex += 2
		default:
			localIndex++
		}
	}
	for i := len(categories) - 1; i >= 0; i-- {
		switch categories[i] {
		case 'I':
			localIndex--
			callee.Locals.SetInt(localIndex, caller.Stack.PopInt())
		case 'F':
			localIndex--
			callee.Locals.SetFloat(localIndex, caller.Stack.PopFloat())
		case 'A':
			localIndex--
			callee.Locals.SetRef(localIndex, caller.Stack.PopRef())
		case 'J':
			localIndex -= 2
			callee.Locals.SetLong(localIndex, caller.Stack.PopLong())
		case 'D':
			localIndex -= 2
			callee.Locals.SetDouble(localIndex, caller.Stack.PopDouble())
		default:
			return jvmerr.New(jvmerr.MalformedClass, "unknown parameter category %q", categories[i])
		}
	}
	return nil
}

// InvokeStatic runs a static method to completion on a fresh Thread,
// initializing its declaring class first, and returns whatever it pushes
// onto its caller's operand stack (the zero Slot for a void method). This
// is the entry point cmd/gojvm drives from the command line; tests drive
// the lower-level Interpret directly so they can inspect intermediate
// frame state.
func (in *Interpreter) InvokeStatic(m *rtda.Method, args []rtda.Slot) (rtda.Slot, error) {
	if !m.IsStatic() {
		return rtda.ZeroSlot, jvmerr.New(jvmerr.IncompatibleMethodCall, "%s.%s%s is not static", mustOwnerName(m), m.Name, m.Descriptor)
	}
	if err := m.Owner.EnsureInitialized(func(clinit *rtda.Method) error { return in.invokeSync(clinit) }); err != nil {
		return rtda.ZeroSlot, err
	}

	thread := rtda.NewThread()
	sentinel := rtda.NewFrame(&rtda.Method{MaxStack: 2, Code: []byte{}})
	if err := thread.PushFrame(sentinel); err != nil {
		return rtda.ZeroSlot, err
	}

	callee := rtda.NewFrame(m)
	for i, s := range args {
		callee.Locals.SetSlot(i, s)
	}
	if err := thread.PushFrame(callee); err != nil {
		return rtda.ZeroSlot, err
	}

	if err := in.Interpret(thread); err != nil {
		return rtda.ZeroSlot, err
	}
	if sentinel.Stack.Size() == 0 {
		return rtda.ZeroSlot, nil
	}
	return sentinel.Stack.PopSlot(), nil
}

func mustOwnerName(m *rtda.Method) string {
	name, err := m.Owner.ClassFile.ClassName()
	if err != nil {
		return "<unknown>"
	}
	return name
}

// Package interpreter implements the frame-based stack-machine bytecode
// interpreter covering the JVMS §6 numeric/control-flow/method-invocation
// subset named in SPEC_FULL.md §4.7.
package interpreter

import (
	"math"

	"github.com/gojvm/gojvm/internal/jvmerr"
	"github.com/gojvm/gojvm/pkg/rtda"
)

// Interpreter drives a Thread's call stack to completion, one opcode at a
// time, against a single entry frame already pushed by the caller.
type Interpreter struct{}

// New returns a ready-to-use Interpreter. It carries no state of its own;
// all mutable state lives on the Thread and its Frames.
func New() *Interpreter { return &Interpreter{} }

// Interpret runs thread until its call stack drops below the depth it had
// when Interpret was called (i.e. until the entry frame itself returns),
// per the test-harness protocol in SPEC_FULL.md §6: the caller pushes a
// sentinel frame, then a real frame on top of it, and reads the return
// value off the sentinel frame's operand stack once Interpret returns.
func (in *Interpreter) Interpret(thread *rtda.Thread) error {
	baseDepth := thread.Depth() - 1
	for thread.Depth() > baseDepth {
		if err := in.step(thread); err != nil {
			return err
		}
	}
	return nil
}

func (in *Interpreter) step(thread *rtda.Thread) error {
	frame := thread.CurrentFrame()
	code := frame.Code()
	if frame.PC >= len(code) {
		return jvmerr.New(jvmerr.MalformedClass, "method %s%s fell off the end of its code array", frame.Method.Name, frame.Method.Descriptor)
	}
	opcode := code[frame.PC]
	frame.PC++

	switch opcode {
	case opNop:

	case opAconstNull:
		frame.Stack.PushRef(nil)
	case opIconstM1, opIconst0, opIconst1, opIconst2, opIconst3, opIconst4, opIconst5:
		frame.Stack.PushInt(int32(opcode) - opIconst0)
	case opLconst0:
		frame.Stack.PushLong(0)
	case opLconst1:
		frame.Stack.PushLong(1)
	case opFconst0:
		frame.Stack.PushFloat(0)
	case opFconst1:
		frame.Stack.PushFloat(1)
	case opFconst2:
		frame.Stack.PushFloat(2)
	case opDconst0:
		frame.Stack.PushDouble(0)
	case opDconst1:
		frame.Stack.PushDouble(1)

	case opBipush:
		v := int8(readU1(frame))
		frame.Stack.PushInt(int32(v))
	case opSipush:
		v := int16(readU2(frame))
		frame.Stack.PushInt(int32(v))

	case opLdc:
		return in.executeLdc(frame, uint16(readU1(frame)))
	case opLdcW:
		return in.executeLdc(frame, readU2(frame))
	case opLdc2W:
		return in.executeLdc2(frame, readU2(frame))

	case opIload:
		frame.Stack.PushInt(frame.Locals.GetInt(int(readU1(frame))))
	case opLload:
		frame.Stack.PushLong(frame.Locals.GetLong(int(readU1(frame))))
	case opFload:
		frame.Stack.PushFloat(frame.Locals.GetFloat(int(readU1(frame))))
	case opDload:
		frame.Stack.PushDouble(frame.Locals.GetDouble(int(readU1(frame))))
	case opAload:
		frame.Stack.PushRef(frame.Locals.GetRef(int(readU1(frame))))

	case opIload0, opIload1, opIload2, opIload3:
		frame.Stack.PushInt(frame.Locals.GetInt(int(opcode - opIload0)))
	case opLload0, opLload1, opLload2, opLload3:
		frame.Stack.PushLong(frame.Locals.GetLong(int(opcode - opLload0)))
	case opFload0, opFload1, opFload2, opFload3:
		frame.Stack.PushFloat(frame.Locals.GetFloat(int(opcode - opFload0)))
	case opDload0, opDload1, opDload2, opDload3:
		frame.Stack.PushDouble(frame.Locals.GetDouble(int(opcode - opDload0)))
	case opAload0, opAload1, opAload2, opAload3:
		frame.Stack.PushRef(frame.Locals.GetRef(int(opcode - opAload0)))

	case opIstore:
		frame.Locals.SetInt(int(readU1(frame)), frame.Stack.PopInt())
	case opLstore:
		frame.Locals.SetLong(int(readU1(frame)), frame.Stack.PopLong())
	case opFstore:
		frame.Locals.SetFloat(int(readU1(frame)), frame.Stack.PopFloat())
	case opDstore:
		frame.Locals.SetDouble(int(readU1(frame)), frame.Stack.PopDouble())
	case opAstore:
		frame.Locals.SetRef(int(readU1(frame)), frame.Stack.PopRef())

	case opIstore0, opIstore1, opIstore2, opIstore3:
		frame.Locals.SetInt(int(opcode-opIstore0), frame.Stack.PopInt())
	case opLstore0, opLstore1, opLstore2, opLstore3:
		frame.Locals.SetLong(int(opcode-opLstore0), frame.Stack.PopLong())
	case opFstore0, opFstore1, opFstore2, opFstore3:
		frame.Locals.SetFloat(int(opcode-opFstore0), frame.Stack.PopFloat())
	case opDstore0, opDstore1, opDstore2, opDstore3:
		frame.Locals.SetDouble(int(opcode-opDstore0), frame.Stack.PopDouble())
	case opAstore0, opAstore1, opAstore2, opAstore3:
		frame.Locals.SetRef(int(opcode-opAstore0), frame.Stack.PopRef())

	case opPop:
		frame.Stack.PopSlot()
	case opPop2:
		frame.Stack.PopSlot()
		frame.Stack.PopSlot()
	case opDup:
		v := frame.Stack.PopSlot()
		frame.Stack.PushSlot(v)
		frame.Stack.PushSlot(v)
	case opDupX1:
		v1 := frame.Stack.PopSlot()
		v2 := frame.Stack.PopSlot()
		frame.Stack.PushSlot(v1)
		frame.Stack.PushSlot(v2)
		frame.Stack.PushSlot(v1)
	case opDupX2:
		v1 := frame.Stack.PopSlot()
		v2 := frame.Stack.PopSlot()
		v3 := frame.Stack.PopSlot()
		frame.Stack.PushSlot(v1)
		frame.Stack.PushSlot(v3)
		frame.Stack.PushSlot(v2)
		frame.Stack.PushSlot(v1)
	case opDup2:
		v1 := frame.Stack.PopSlot()
		v2 := frame.Stack.PopSlot()
		frame.Stack.PushSlot(v2)
		frame.Stack.PushSlot(v1)
		frame.Stack.PushSlot(v2)
		frame.Stack.PushSlot(v1)
	case opDup2X1:
		v1 := frame.Stack.PopSlot()
		v2 := frame.Stack.PopSlot()
		v3 := frame.Stack.PopSlot()
		frame.Stack.PushSlot(v2)
		frame.Stack.PushSlot(v1)
		frame.Stack.PushSlot(v3)
		frame.Stack.PushSlot(v2)
		frame.Stack.PushSlot(v1)
	case opDup2X2:
		v1 := frame.Stack.PopSlot()
		v2 := frame.Stack.PopSlot()
		v3 := frame.Stack.PopSlot()
		v4 := frame.Stack.PopSlot()
		frame.Stack.PushSlot(v2)
		frame.Stack.PushSlot(v1)
		frame.Stack.PushSlot(v4)
		frame.Stack.PushSlot(v3)
		frame.Stack.PushSlot(v2)
		frame.Stack.PushSlot(v1)
	case opSwap:
		v1 := frame.Stack.PopSlot()
		v2 := frame.Stack.PopSlot()
		frame.Stack.PushSlot(v1)
		frame.Stack.PushSlot(v2)

	case opIadd:
		b, a := frame.Stack.PopInt(), frame.Stack.PopInt()
		frame.Stack.PushInt(a + b)
	case opLadd:
		b, a := frame.Stack.PopLong(), frame.Stack.PopLong()
		frame.Stack.PushLong(a + b)
	case opFadd:
		b, a := frame.Stack.PopFloat(), frame.Stack.PopFloat()
		frame.Stack.PushFloat(a + b)
	case opDadd:
		b, a := frame.Stack.PopDouble(), frame.Stack.PopDouble()
		frame.Stack.PushDouble(a + b)
	case opIsub:
		b, a := frame.Stack.PopInt(), frame.Stack.PopInt()
		frame.Stack.PushInt(a - b)
	case opLsub:
		b, a := frame.Stack.PopLong(), frame.Stack.PopLong()
		frame.Stack.PushLong(a - b)
	case opFsub:
		b, a := frame.Stack.PopFloat(), frame.Stack.PopFloat()
		frame.Stack.PushFloat(a - b)
	case opDsub:
		b, a := frame.Stack.PopDouble(), frame.Stack.PopDouble()
		frame.Stack.PushDouble(a - b)
	case opImul:
		b, a := frame.Stack.PopInt(), frame.Stack.PopInt()
		frame.Stack.PushInt(a * b)
	case opLmul:
		b, a := frame.Stack.PopLong(), frame.Stack.PopLong()
		frame.Stack.PushLong(a * b)
	case opFmul:
		b, a := frame.Stack.PopFloat(), frame.Stack.PopFloat()
		frame.Stack.PushFloat(a * b)
	case opDmul:
		b, a := frame.Stack.PopDouble(), frame.Stack.PopDouble()
		frame.Stack.PushDouble(a * b)
	case opIdiv:
		b, a := frame.Stack.PopInt(), frame.Stack.PopInt()
		if b == 0 {
			return jvmerr.New(jvmerr.ArithmeticDivByZero, "/ by zero")
		}
		frame.Stack.PushInt(a / b)
	case opLdiv:
		b, a := frame.Stack.PopLong(), frame.Stack.PopLong()
		if b == 0 {
			return jvmerr.New(jvmerr.ArithmeticDivByZero, "/ by zero")
		}
		frame.Stack.PushLong(a / b)
	case opFdiv:
		b, a := frame.Stack.PopFloat(), frame.Stack.PopFloat()
		frame.Stack.PushFloat(a / b)
	case opDdiv:
		b, a := frame.Stack.PopDouble(), frame.Stack.PopDouble()
		frame.Stack.PushDouble(a / b)
	case opIrem:
		b, a := frame.Stack.PopInt(), frame.Stack.PopInt()
		if b == 0 {
			return jvmerr.New(jvmerr.ArithmeticDivByZero, "/ by zero")
		}
		frame.Stack.PushInt(a % b)
	case opLrem:
		b, a := frame.Stack.PopLong(), frame.Stack.PopLong()
		if b == 0 {
			return jvmerr.New(jvmerr.ArithmeticDivByZero, "/ by zero")
		}
		frame.Stack.PushLong(a % b)
	case opFrem:
		b, a := frame.Stack.PopFloat(), frame.Stack.PopFloat()
		frame.Stack.PushFloat(float32(math.Mod(float64(a), float64(b))))
	case opDrem:
		b, a := frame.Stack.PopDouble(), frame.Stack.PopDouble()
		frame.Stack.PushDouble(math.Mod(a, b))
	case opIneg:
		frame.Stack.PushInt(-frame.Stack.PopInt())
	case opLneg:
		frame.Stack.PushLong(-frame.Stack.PopLong())
	case opFneg:
		frame.Stack.PushFloat(-frame.Stack.PopFloat())
	case opDneg:
		frame.Stack.PushDouble(-frame.Stack.PopDouble())

	case opIshl:
		s, v := frame.Stack.PopInt(), frame.Stack.PopInt()
		frame.Stack.PushInt(v << (uint32(s) & 0x1F))
	case opLshl:
		s, v := frame.Stack.PopInt(), frame.Stack.PopLong()
		frame.Stack.PushLong(v << (uint32(s) & 0x3F))
	case opIshr:
		s, v := frame.Stack.PopInt(), frame.Stack.PopInt()
		frame.Stack.PushInt(v >> (uint32(s) & 0x1F))
	case opLshr:
		s, v := frame.Stack.PopInt(), frame.Stack.PopLong()
		frame.Stack.PushLong(v >> (uint32(s) & 0x3F))
	case opIushr:
		s, v := frame.Stack.PopInt(), frame.Stack.PopInt()
		frame.Stack.PushInt(int32(uint32(v) >> (uint32(s) & 0x1F)))
	case opLushr:
		s, v := frame.Stack.PopInt(), frame.Stack.PopLong()
		frame.Stack.PushLong(int64(uint64(v) >> (uint32(s) & 0x3F)))
	case opIand:
		b, a := frame.Stack.PopInt(), frame.Stack.PopInt()
		frame.Stack.PushInt(a & b)
	case opLand:
		b, a := frame.Stack.PopLong(), frame.Stack.PopLong()
		frame.Stack.PushLong(a & b)
	case opIor:
		b, a := frame.Stack.PopInt(), frame.Stack.PopInt()
		frame.Stack.PushInt(a | b)
	case opLor:
		b, a := frame.Stack.PopLong(), frame.Stack.PopLong()
		frame.Stack.PushLong(a | b)
	case opIxor:
		b, a := frame.Stack.PopInt(), frame.Stack.PopInt()
		frame.Stack.PushInt(a ^ b)
	case opLxor:
		b, a := frame.Stack.PopLong(), frame.Stack.PopLong()
		frame.Stack.PushLong(a ^ b)

	case opIinc:
		// One unsigned index byte, then one signed constant byte (JVMS 6.5.iinc).
		index := int(readU1(frame))
		delta := int32(int8(readU1(frame)))
		frame.Locals.SetInt(index, frame.Locals.GetInt(index)+delta)

	case opI2l:
		frame.Stack.PushLong(int64(frame.Stack.PopInt()))
	case opI2f:
		frame.Stack.PushFloat(float32(frame.Stack.PopInt()))
	case opI2d:
		frame.Stack.PushDouble(float64(frame.Stack.PopInt()))
	case opL2i:
		frame.Stack.PushInt(int32(frame.Stack.PopLong()))
	case opL2f:
		frame.Stack.PushFloat(float32(frame.Stack.PopLong()))
	case opL2d:
		frame.Stack.PushDouble(float64(frame.Stack.PopLong()))
	case opF2i:
		frame.Stack.PushInt(floatToInt(frame.Stack.PopFloat()))
	case opF2l:
		frame.Stack.PushLong(floatToLong(frame.Stack.PopFloat()))
	case opF2d:
		frame.Stack.PushDouble(float64(frame.Stack.PopFloat()))
	case opD2i:
		frame.Stack.PushInt(doubleToInt(frame.Stack.PopDouble()))
	case opD2l:
		frame.Stack.PushLong(doubleToLong(frame.Stack.PopDouble()))
	case opD2f:
		frame.Stack.PushFloat(float32(frame.Stack.PopDouble()))
	case opI2b:
		frame.Stack.PushInt(int32(int8(frame.Stack.PopInt())))
	case opI2c:
		frame.Stack.PushInt(int32(uint16(frame.Stack.PopInt())))
	case opI2s:
		frame.Stack.PushInt(int32(int16(frame.Stack.PopInt())))

	case opLcmp:
		b, a := frame.Stack.PopLong(), frame.Stack.PopLong()
		frame.Stack.PushInt(longCompare(a, b))
	case opFcmpl:
		b, a := frame.Stack.PopFloat(), frame.Stack.PopFloat()
		frame.Stack.PushInt(floatCompare(a, b, -1))
	case opFcmpg:
		b, a := frame.Stack.PopFloat(), frame.Stack.PopFloat()
		frame.Stack.PushInt(floatCompare(a, b, 1))
	case opDcmpl:
		b, a := frame.Stack.PopDouble(), frame.Stack.PopDouble()
		frame.Stack.PushInt(doubleCompare(a, b, -1))
	case opDcmpg:
		b, a := frame.Stack.PopDouble(), frame.Stack.PopDouble()
		frame.Stack.PushInt(doubleCompare(a, b, 1))

	case opIfeq, opIfne, opIflt, opIfge, opIfgt, opIfle:
		branchIfUnary(frame, opcode)
	case opIfIcmpeq, opIfIcmpne, opIfIcmplt, opIfIcmpge, opIfIcmpgt, opIfIcmple:
		branchIfIcmp(frame, opcode)
	case opIfAcmpeq, opIfAcmpne:
		branchIfAcmp(frame, opcode)
	case opIfnull:
		branchPC := frame.PC - 1
		offset := int16(readU2(frame))
		if frame.Stack.PopRef() == nil {
			frame.PC = branchPC + int(offset)
		}
	case opIfnonnull:
		branchPC := frame.PC - 1
		offset := int16(readU2(frame))
		if frame.Stack.PopRef() != nil {
			frame.PC = branchPC + int(offset)
		}

	case opGoto:
		branchPC := frame.PC - 1
		offset := int16(readU2(frame))
		frame.PC = branchPC + int(offset)
	case opGotoW:
		branchPC := frame.PC - 1
		offset := int32(readU4(frame))
		frame.PC = branchPC + int(offset)

	case opJsr, opRet:
		return jvmerr.New(jvmerr.Unimplemented, "jsr/ret (opcode 0x%02X) are reserved and unsupported", opcode)

	case opTableswitch:
		return in.executeTableswitch(frame)
	case opLookupswitch:
		return in.executeLookupswitch(frame)

	case opIreturn:
		return in.doReturn(thread, frame.Stack.PopInt(), func(caller *rtda.Frame, v interface{}) {
			caller.Stack.PushInt(v.(int32))
		})
	case opLreturn:
		return in.doReturn(thread, frame.Stack.PopLong(), func(caller *rtda.Frame, v interface{}) {
			caller.Stack.PushLong(v.(int64))
		})
	case opFreturn:
		return in.doReturn(thread, frame.Stack.PopFloat(), func(caller *rtda.Frame, v interface{}) {
			caller.Stack.PushFloat(v.(float32))
		})
	case opDreturn:
		return in.doReturn(thread, frame.Stack.PopDouble(), func(caller *rtda.Frame, v interface{}) {
			caller.Stack.PushDouble(v.(float64))
		})
	case opAreturn:
		return in.doReturn(thread, frame.Stack.PopRef(), func(caller *rtda.Frame, v interface{}) {
			caller.Stack.PushRef(v)
		})
	case opReturn:
		thread.PopFrame()

	case opGetstatic:
		return in.executeGetstatic(frame, readU2(frame))
	case opPutstatic:
		return in.executePutstatic(frame, readU2(frame))

	case opInvokestatic:
		return in.executeInvokestatic(thread, frame, readU2(frame))

	// --- Decode-only stubs: operands are consumed so PC stays in sync
	// (except for wide, whose operand length depends on the instruction it
	// modifies), but these opcodes reach objects/arrays/the heap/
	// invokedynamic, all explicitly out of scope. ---
	case opGetfield, opPutfield:
		readU2(frame)
		return jvmerr.New(jvmerr.Unimplemented, "instance field access (opcode 0x%02X) is out of scope", opcode)
	case opInvokevirtual, opInvokespecial:
		readU2(frame)
		return jvmerr.New(jvmerr.Unimplemented, "opcode 0x%02X is out of scope", opcode)
	case opInvokeinterface:
		readU2(frame)
		readU1(frame)
		readU1(frame)
		return jvmerr.New(jvmerr.Unimplemented, "invokeinterface is out of scope")
	case opInvokedynamic:
		readU2(frame)
		readU1(frame)
		readU1(frame)
		return jvmerr.New(jvmerr.Unimplemented, "invokedynamic is out of scope")
	case opNew:
		readU2(frame)
		return jvmerr.New(jvmerr.Unimplemented, "new is out of scope (no heap)")
	case opNewarray:
		readU1(frame)
		return jvmerr.New(jvmerr.Unimplemented, "newarray is out of scope (no heap)")
	case opAnewarray:
		readU2(frame)
		return jvmerr.New(jvmerr.Unimplemented, "anewarray is out of scope (no heap)")
	case opCheckcast, opInstanceof:
		readU2(frame)
		return jvmerr.New(jvmerr.Unimplemented, "opcode 0x%02X is out of scope (no heap)", opcode)
	case opMultianewarray:
		readU2(frame)
		readU1(frame)
		return jvmerr.New(jvmerr.Unimplemented, "multianewarray is out of scope (no heap)")
	case opArraylength, opAthrow, opMonitorenter, opMonitorexit:
		return jvmerr.New(jvmerr.Unimplemented, "opcode 0x%02X is out of scope", opcode)
	case opIaload, opLaload, opFaload, opDaload, opAaload, opBaload, opCaload, opSaload,
		opIastore, opLastore, opFastore, opDastore, opAastore, opBastore, opCastore, opSastore:
		return jvmerr.New(jvmerr.Unimplemented, "array opcode 0x%02X is out of scope (no heap)", opcode)
	case opWide:
		return jvmerr.New(jvmerr.Unimplemented, "wide is reserved and unsupported")
	case opJsrW:
		readU4(frame)
		return jvmerr.New(jvmerr.Unimplemented, "jsr_w is reserved and unsupported")

	default:
		return jvmerr.New(jvmerr.InvalidOpcode, "unknown opcode 0x%02X at pc=%d", opcode, frame.PC-1)
	}

	return nil
}

func (in *Interpreter) doReturn(thread *rtda.Thread, value interface{}, push func(*rtda.Frame, interface{})) error {
	thread.PopFrame()
	if !thread.IsEmpty() {
		push(thread.CurrentFrame(), value)
	}
	return nil
}

func readU1(frame *rtda.Frame) uint8 {
	v := frame.Code()[frame.PC]
	frame.PC++
	return v
}

func readU2(frame *rtda.Frame) uint16 {
	hi := frame.Code()[frame.PC]
	lo := frame.Code()[frame.PC+1]
	frame.PC += 2
	return uint16(hi)<<8 | uint16(lo)
}

func readU4(frame *rtda.Frame) uint32 {
	b := frame.Code()[frame.PC : frame.PC+4]
	frame.PC += 4
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

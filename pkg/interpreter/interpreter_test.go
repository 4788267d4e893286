package interpreter

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gojvm/gojvm/pkg/classfile"
	"github.com/gojvm/gojvm/pkg/rtda"
)

// fakeLoader serves hand-built ClassFiles from an in-memory map, letting
// these tests exercise the interpreter against real Klass/Method objects
// without going through the binary parser or a classpath.
type fakeLoader struct {
	id      string
	classes map[string]*classfile.ClassFile
}

func newFakeLoader(id string) *fakeLoader {
	return &fakeLoader{id: id, classes: make(map[string]*classfile.ClassFile)}
}

func (l *fakeLoader) LoadClassFile(name string) (*classfile.ClassFile, error) {
	if cf, ok := l.classes[name]; ok {
		return cf, nil
	}
	return nil, &notFoundErr{name: name}
}

func (l *fakeLoader) Identity() string { return l.id }

type notFoundErr struct{ name string }

func (e *notFoundErr) Error() string { return "class not found: " + e.name }

// objectClassFile builds a minimal java/lang/Object class file: one Utf8 and
// one Class constant pool entry, no super, no fields, no methods.
func objectClassFile() *classfile.ClassFile {
	return &classfile.ClassFile{
		ConstantPool: classfile.ConstantPool{
			0: nil,
			1: classfile.ConstantUtf8{Value: "java/lang/Object"},
			2: classfile.ConstantClass{NameIndex: 1},
		},
		ThisClass: 2,
	}
}

// runMethod pushes a sentinel caller frame, a frame for m with the given
// initial locals, interprets until the entry frame returns, and returns the
// sentinel frame's operand stack for the caller to inspect.
func runMethod(t *testing.T, m *rtda.Method, locals []rtda.Slot) *rtda.OperandStack {
	t.Helper()
	thread := rtda.NewThread()
	sentinel := rtda.NewFrame(&rtda.Method{MaxStack: 8, MaxLocals: 0, Code: []byte{}})
	require.NoError(t, thread.PushFrame(sentinel))

	callee := rtda.NewFrame(m)
	for i, s := range locals {
		callee.Locals.SetSlot(i, s)
	}
	require.NoError(t, thread.PushFrame(callee))

	require.NoError(t, New().Interpret(thread))
	return sentinel.Stack
}

func TestInterpretIaddReturnsSum(t *testing.T) {
	loader := newFakeLoader("test")
	obj := objectClassFile()
	loader.classes["java/lang/Object"] = obj

	cf := &classfile.ClassFile{
		ConstantPool: classfile.ConstantPool{
			0: nil,
			1: classfile.ConstantUtf8{Value: "Calc"},
			2: classfile.ConstantUtf8{Value: "java/lang/Object"},
			3: classfile.ConstantClass{NameIndex: 1},
			4: classfile.ConstantClass{NameIndex: 2},
		},
		ThisClass:  3,
		SuperClass: 4,
		Methods: []classfile.MethodInfo{{
			AccessFlags: classfile.AccStatic,
			Name:        "add",
			Descriptor:  "(II)I",
			Code: &classfile.CodeAttribute{
				MaxStack:  2,
				MaxLocals: 2,
				Code:      []byte{0x1A, 0x1B, 0x60, 0xAC}, // iload_0, iload_1, iadd, ireturn
			},
		}},
	}
	loader.classes["Calc"] = cf

	area := rtda.NewMethodArea()
	k, err := area.ResolveClass(loader, "Calc")
	require.NoError(t, err)

	m := k.FindMethod("add", "(II)I")
	require.NotNil(t, m)

	stack := runMethod(t, m, []rtda.Slot{rtda.IntSlot(10), rtda.IntSlot(20)})
	require.Equal(t, 1, stack.Size())
	require.Equal(t, int32(30), stack.PopInt())
}

func TestInterpretWhileLoopSums1ToN(t *testing.T) {
	loader := newFakeLoader("test")
	loader.classes["java/lang/Object"] = objectClassFile()

	// int sum(int n) {
	//   int acc = 0, i = 1;
	//   while (i <= n) { acc += i; i++; }
	//   return acc;
	// }
	//  0: iconst_0        acc = 0
	//  1: istore_1
	//  2: iconst_1        i = 1
	//  3: istore_2
	//  4: iload_2         [loop head]
	//  5: iload_0
	//  6: if_icmpgt 19    if (i > n) goto end
	//  9: iload_1
	// 10: iload_2
	// 11: iadd
	// 12: istore_1        acc += i
	// 13: iinc 2, 1       i++
	// 16: goto 4
	// 19: iload_1
	// 20: ireturn
	code := []byte{
		0x03, 0x3C, // iconst_0, istore_1
		0x04, 0x3D, // iconst_1, istore_2
		0x1C, 0x1A, 0xA3, 0x00, 13, // iload_2, iload_0, if_icmpgt +13 -> pc 6+13=19
		0x1B, 0x1C, 0x60, 0x3C, // iload_1, iload_2, iadd, istore_1
		0x84, 0x02, 0x01, // iinc 2, 1
		0xA7, 0xFF, 0xF4, // goto -12 -> pc 16-12=4
		0x1B, 0xAC, // iload_1, ireturn
	}
	cf := &classfile.ClassFile{
		ConstantPool: classfile.ConstantPool{
			0: nil,
			1: classfile.ConstantUtf8{Value: "Loops"},
			2: classfile.ConstantUtf8{Value: "java/lang/Object"},
			3: classfile.ConstantClass{NameIndex: 1},
			4: classfile.ConstantClass{NameIndex: 2},
		},
		ThisClass:  3,
		SuperClass: 4,
		Methods: []classfile.MethodInfo{{
			AccessFlags: classfile.AccStatic,
			Name:        "sum",
			Descriptor:  "(I)I",
			Code:        &classfile.CodeAttribute{MaxStack: 2, MaxLocals: 3, Code: code},
		}},
	}
	loader.classes["Loops"] = cf

	area := rtda.NewMethodArea()
	k, err := area.ResolveClass(loader, "Loops")
	require.NoError(t, err)
	m := k.FindMethod("sum", "(I)I")
	require.NotNil(t, m)

	stack := runMethod(t, m, []rtda.Slot{rtda.IntSlot(5)})
	require.Equal(t, int32(15), stack.PopInt())
}

func TestInterpretInvokestaticTransfersArgumentsAndReturn(t *testing.T) {
	loader := newFakeLoader("test")
	loader.classes["java/lang/Object"] = objectClassFile()

	// static int square(int x) { return x * x; }
	// static int callSquare(int n) { return square(n); }
	squareCode := []byte{0x1A, 0x1A, 0x68, 0xAC} // iload_0, iload_0, imul, ireturn
	callCode := []byte{
		0x1A,       // iload_0
		0xB8, 0, 5, // invokestatic #5 (Methodref -> square(I)I)
		0xAC, // ireturn
	}

	cf := &classfile.ClassFile{
		ConstantPool: classfile.ConstantPool{
			0: nil,
			1: classfile.ConstantUtf8{Value: "Calc2"},
			2: classfile.ConstantUtf8{Value: "java/lang/Object"},
			3: classfile.ConstantClass{NameIndex: 1},
			4: classfile.ConstantClass{NameIndex: 2},
			5: classfile.ConstantMethodref{ClassIndex: 3, NameAndTypeIndex: 8},
			6: classfile.ConstantUtf8{Value: "square"},
			7: classfile.ConstantUtf8{Value: "(I)I"},
			8: classfile.ConstantNameAndType{NameIndex: 6, DescriptorIndex: 7},
		},
		ThisClass:  3,
		SuperClass: 4,
		Methods: []classfile.MethodInfo{
			{
				AccessFlags: classfile.AccStatic,
				Name:        "square",
				Descriptor:  "(I)I",
				Code:        &classfile.CodeAttribute{MaxStack: 2, MaxLocals: 1, Code: squareCode},
			},
			{
				AccessFlags: classfile.AccStatic,
				Name:        "callSquare",
				Descriptor:  "(I)I",
				Code:        &classfile.CodeAttribute{MaxStack: 1, MaxLocals: 1, Code: callCode},
			},
		},
	}
	loader.classes["Calc2"] = cf

	area := rtda.NewMethodArea()
	k, err := area.ResolveClass(loader, "Calc2")
	require.NoError(t, err)
	m := k.FindMethod("callSquare", "(I)I")
	require.NotNil(t, m)

	stack := runMethod(t, m, []rtda.Slot{rtda.IntSlot(7)})
	require.Equal(t, int32(49), stack.PopInt())
}

func TestInterpretGetstaticPutstaticAndClinit(t *testing.T) {
	loader := newFakeLoader("test")
	loader.classes["java/lang/Object"] = objectClassFile()

	// <clinit>: putstatic #5 (counter = 42)
	clinitCode := []byte{0x10, 42, 0xB3, 0, 5, 0xB1} // bipush 42, putstatic #5, return
	// static int readCounter() { return counter; }
	readCode := []byte{0xB2, 0, 5, 0xAC} // getstatic #5, ireturn

	cf := &classfile.ClassFile{
		ConstantPool: classfile.ConstantPool{
			0: nil,
			1: classfile.ConstantUtf8{Value: "Statics"},
			2: classfile.ConstantUtf8{Value: "java/lang/Object"},
			3: classfile.ConstantClass{NameIndex: 1},
			4: classfile.ConstantClass{NameIndex: 2},
			5: classfile.ConstantFieldref{ClassIndex: 3, NameAndTypeIndex: 8},
			6: classfile.ConstantUtf8{Value: "counter"},
			7: classfile.ConstantUtf8{Value: "I"},
			8: classfile.ConstantNameAndType{NameIndex: 6, DescriptorIndex: 7},
		},
		ThisClass:  3,
		SuperClass: 4,
		Fields: []classfile.FieldInfo{
			{AccessFlags: classfile.AccStatic, Name: "counter", Descriptor: "I"},
		},
		Methods: []classfile.MethodInfo{
			{
				AccessFlags: classfile.AccStatic,
				Name:        "<clinit>",
				Descriptor:  "()V",
				Code:        &classfile.CodeAttribute{MaxStack: 1, MaxLocals: 0, Code: clinitCode},
			},
			{
				AccessFlags: classfile.AccStatic,
				Name:        "readCounter",
				Descriptor:  "()I",
				Code:        &classfile.CodeAttribute{MaxStack: 1, MaxLocals: 0, Code: readCode},
			},
		},
	}
	loader.classes["Statics"] = cf

	area := rtda.NewMethodArea()
	k, err := area.ResolveClass(loader, "Statics")
	require.NoError(t, err)
	m := k.FindMethod("readCounter", "()I")
	require.NotNil(t, m)

	stack := runMethod(t, m, nil)
	require.Equal(t, int32(42), stack.PopInt())
}

func TestInterpretIdivByZeroRaisesArithmeticError(t *testing.T) {
	loader := newFakeLoader("test")
	loader.classes["java/lang/Object"] = objectClassFile()

	code := []byte{0x1A, 0x1B, 0x6C, 0xAC} // iload_0, iload_1, idiv, ireturn
	cf := &classfile.ClassFile{
		ConstantPool: classfile.ConstantPool{
			0: nil,
			1: classfile.ConstantUtf8{Value: "Div"},
			2: classfile.ConstantUtf8{Value: "java/lang/Object"},
			3: classfile.ConstantClass{NameIndex: 1},
			4: classfile.ConstantClass{NameIndex: 2},
		},
		ThisClass:  3,
		SuperClass: 4,
		Methods: []classfile.MethodInfo{{
			AccessFlags: classfile.AccStatic,
			Name:        "div",
			Descriptor:  "(II)I",
			Code:        &classfile.CodeAttribute{MaxStack: 2, MaxLocals: 2, Code: code},
		}},
	}
	loader.classes["Div"] = cf

	area := rtda.NewMethodArea()
	k, err := area.ResolveClass(loader, "Div")
	require.NoError(t, err)
	m := k.FindMethod("div", "(II)I")
	require.NotNil(t, m)

	thread := rtda.NewThread()
	sentinel := rtda.NewFrame(&rtda.Method{MaxStack: 8, Code: []byte{}})
	require.NoError(t, thread.PushFrame(sentinel))
	callee := rtda.NewFrame(m)
	callee.Locals.SetInt(0, 10)
	callee.Locals.SetInt(1, 0)
	require.NoError(t, thread.PushFrame(callee))

	err = New().Interpret(thread)
	require.Error(t, err)
}

func TestInterpretLongArithmeticTwoSlotConvention(t *testing.T) {
	loader := newFakeLoader("test")
	loader.classes["java/lang/Object"] = objectClassFile()

	// static long add(long a, long b) { return a + b; }
	code := []byte{0x1E, 0x20, 0x61, 0xAD} // lload_0, lload_2, ladd, lreturn
	cf := &classfile.ClassFile{
		ConstantPool: classfile.ConstantPool{
			0: nil,
			1: classfile.ConstantUtf8{Value: "LongCalc"},
			2: classfile.ConstantUtf8{Value: "java/lang/Object"},
			3: classfile.ConstantClass{NameIndex: 1},
			4: classfile.ConstantClass{NameIndex: 2},
		},
		ThisClass:  3,
		SuperClass: 4,
		Methods: []classfile.MethodInfo{{
			AccessFlags: classfile.AccStatic,
			Name:        "add",
			Descriptor:  "(JJ)J",
			Code:        &classfile.CodeAttribute{MaxStack: 4, MaxLocals: 4, Code: code},
		}},
	}
	loader.classes["LongCalc"] = cf

	area := rtda.NewMethodArea()
	k, err := area.ResolveClass(loader, "LongCalc")
	require.NoError(t, err)
	m := k.FindMethod("add", "(JJ)J")
	require.NotNil(t, m)

	locals := rtda.NewLocalVariables(4)
	locals.SetLong(0, 1_000_000_000)
	locals.SetLong(2, 2_000_000_000)
	stack := runMethod(t, m, []rtda.Slot{locals.GetSlot(0), locals.GetSlot(1), locals.GetSlot(2), locals.GetSlot(3)})
	require.Equal(t, int64(3_000_000_000), stack.PopLong())
}

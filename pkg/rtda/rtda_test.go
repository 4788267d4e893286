package rtda

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gojvm/gojvm/pkg/classfile"
)

// fakeLoader serves hand-built ClassFiles from an in-memory map, letting
// rtda's tests exercise MethodArea/Klass linking without going through the
// binary parser or a real classpath.
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
	return nil, jvmNotFoundStub(name)
}

func (l *fakeLoader) Identity() string { return l.id }

func jvmNotFoundStub(name string) error {
	return &notFoundErr{name: name}
}

type notFoundErr struct{ name string }

func (e *notFoundErr) Error() string { return "class not found: " + e.name }

// buildClassFile constructs a minimal ClassFile whose this_class/super_class
// resolve to the given names via a 4-entry constant pool: Utf8(name),
// Utf8(superName), Class->Utf8(name), Class->Utf8(superName).
func buildClassFile(name, superName string, extra ...classfile.MethodInfo) *classfile.ClassFile {
	pool := classfile.ConstantPool{
		0: nil,
		1: classfile.ConstantUtf8{Value: name},
		2: classfile.ConstantUtf8{Value: superName},
		3: classfile.ConstantClass{NameIndex: 1},
		4: classfile.ConstantClass{NameIndex: 2},
	}
	var superIdx uint16
	if superName != "" {
		superIdx = 4
	}
	return &classfile.ClassFile{
		ConstantPool: pool,
		ThisClass:    3,
		SuperClass:   superIdx,
		Methods:      extra,
	}
}

func TestMethodAreaResolveClassCachesAndLinksSuper(t *testing.T) {
	loader := newFakeLoader("app")
	object := buildClassFile("java/lang/Object", "")
	child := buildClassFile("Child", "java/lang/Object")
	loader.classes["java/lang/Object"] = object
	loader.classes["Child"] = child

	area := NewMethodArea()
	k1, err := area.ResolveClass(loader, "Child")
	require.NoError(t, err)
	// Child's super is java/lang/Object, which the bootstrap short-circuit
	// leaves nil rather than loading and linking a real Klass (§4.3).
	require.Nil(t, k1.Super)

	k2, err := area.ResolveClass(loader, "Child")
	require.NoError(t, err)
	require.Same(t, k1, k2, "repeated resolution must return the cached Klass")
}

func TestMethodAreaDetectsClassCircularity(t *testing.T) {
	loader := newFakeLoader("app")
	a := buildClassFile("A", "B")
	b := buildClassFile("B", "A")
	loader.classes["A"] = a
	loader.classes["B"] = b

	area := NewMethodArea()
	_, err := area.ResolveClass(loader, "A")
	require.Error(t, err)
}

func TestFieldSlotAssignmentDoubleWidth(t *testing.T) {
	loader := newFakeLoader("app")
	cf := buildClassFile("Obj", "java/lang/Object")
	cf.Fields = []classfile.FieldInfo{
		{AccessFlags: classfile.AccStatic, Name: "count", Descriptor: "I"},
		{AccessFlags: classfile.AccStatic, Name: "total", Descriptor: "D"},
		{AccessFlags: 0, Name: "x", Descriptor: "J"},
		{AccessFlags: 0, Name: "y", Descriptor: "I"},
	}
	loader.classes["Obj"] = cf
	area := NewMethodArea()
	k, err := area.ResolveClass(loader, "Obj")
	require.NoError(t, err)

	count := k.FindField("count", "I")
	total := k.FindField("total", "D")
	require.Equal(t, 0, count.SlotIndex)
	require.Equal(t, 1, total.SlotIndex) // D takes 2 slots after I's 1
	require.Equal(t, 3, k.StaticSlotCount())

	x := k.FindField("x", "J")
	y := k.FindField("y", "I")
	require.Equal(t, 0, x.SlotIndex)
	require.Equal(t, 2, y.SlotIndex)
	require.Equal(t, 3, k.InstanceSlotCount())
}

func TestOperandStackLongDoubleTwoSlotConvention(t *testing.T) {
	s := NewOperandStack(4)
	s.PushLong(42)
	require.Equal(t, 2, s.Size())
	require.Equal(t, int64(42), s.PopLong())
	require.Equal(t, 0, s.Size())

	s.PushDouble(3.5)
	require.Equal(t, 2, s.Size())
	require.Equal(t, 3.5, s.PopDouble())
}

func TestClinitRunsOnce(t *testing.T) {
	loader := newFakeLoader("app")
	object := buildClassFile("java/lang/Object", "")
	child := buildClassFile("Child", "java/lang/Object", classfile.MethodInfo{
		AccessFlags: classfile.AccStatic,
		Name:        "<clinit>",
		Descriptor:  "()V",
		Code:        &classfile.CodeAttribute{Code: []byte{0xB1}},
	})
	loader.classes["java/lang/Object"] = object
	loader.classes["Child"] = child

	area := NewMethodArea()
	k, err := area.ResolveClass(loader, "Child")
	require.NoError(t, err)

	var order []string
	run := func(m *Method) error {
		order = append(order, m.Owner.ClassFile.Methods[0].Name)
		return nil
	}
	require.NoError(t, k.EnsureInitialized(run))
	require.NoError(t, k.EnsureInitialized(run)) // second call is a no-op
	require.Equal(t, []string{"<clinit>"}, order)
}

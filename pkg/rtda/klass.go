package rtda

import (
	"github.com/gojvm/gojvm/internal/jvmerr"
	"github.com/gojvm/gojvm/pkg/classfile"
)

// Klass is the runtime mirror of a loaded class: its class file, its
// resolved super/interface links, its methods and fields, its runtime
// constant pool, and its static value storage.
type Klass struct {
	ClassFile  *classfile.ClassFile
	loader     Loader
	area       *MethodArea
	Super      *Klass   // nil for java.lang.Object and for its direct subclasses
	Interfaces []*Klass // resolved at the same index as ClassFile.Interfaces

	ConstantPool *RuntimeConstantPool

	methods []*Method
	fields  []*Field

	instanceSlotCount int
	staticSlotCount   int
	statics           []Slot

	initialized bool
}

// Loader returns the defining class loader of this Klass.
func (k *Klass) Loader() Loader { return k.loader }

// FindMethod walks this class then its superclass chain (not interfaces,
// per §9 open question 4) for a method matching name+descriptor.
func (k *Klass) FindMethod(name, descriptor string) *Method {
	for c := k; c != nil; c = c.Super {
		for _, m := range c.methods {
			if m.Name == name && m.Descriptor == descriptor {
				return m
			}
		}
	}
	return nil
}

// FindField walks this class then its superclass chain for a field
// matching name+descriptor.
func (k *Klass) FindField(name, descriptor string) *Field {
	for c := k; c != nil; c = c.Super {
		for _, f := range c.fields {
			if f.Name == name && f.Descriptor == descriptor {
				return f
			}
		}
	}
	return nil
}

// GetStaticSlot reads the static value stored at a field's SlotIndex,
// walking up to the declaring class's own static storage.
func (k *Klass) GetStaticSlot(f *Field) Slot {
	return f.Owner.statics[f.SlotIndex]
}

// SetStaticSlot writes the static value stored at a field's SlotIndex.
func (k *Klass) SetStaticSlot(f *Field, v Slot) {
	f.Owner.statics[f.SlotIndex] = v
}

// EnsureInitialized runs this class's <clinit>, if present, exactly once,
// initializing the superclass first (JVMS 5.5). A class is marked
// initialized before its own <clinit> body runs so that a static
// initializer which (directly or transitively) re-enters its own class
// does not loop.
//
// run is supplied by the interpreter, which alone knows how to execute a
// Method's bytecode; this keeps rtda free of a dependency on the
// interpreter package.
func (k *Klass) EnsureInitialized(run func(*Method) error) error {
	if k.initialized {
		return nil
	}
	k.initialized = true
	if k.Super != nil {
		if err := k.Super.EnsureInitialized(run); err != nil {
			return err
		}
	}
	clinit := k.FindMethodOwnedBySelf("<clinit>", "()V")
	if clinit == nil {
		return nil
	}
	return run(clinit)
}

// FindMethodOwnedBySelf returns a method declared directly on k, ignoring
// the superclass chain — used for <clinit>, which is never inherited.
func (k *Klass) FindMethodOwnedBySelf(name, descriptor string) *Method {
	for _, m := range k.methods {
		if m.Name == name && m.Descriptor == descriptor {
			return m
		}
	}
	return nil
}

// defineKlass builds a Klass from a parsed ClassFile: it prepares the
// runtime constant pool, methods, and fields/statics (§4.5, §4.6). Super
// and interface linking happen separately in MethodArea.resolveClass,
// since they require loading other classes.
func defineKlass(area *MethodArea, loader Loader, cf *classfile.ClassFile) *Klass {
	k := &Klass{ClassFile: cf, loader: loader, area: area}
	k.ConstantPool = newRuntimeConstantPool(k, cf.ConstantPool)

	k.methods = make([]*Method, len(cf.Methods))
	for i, mi := range cf.Methods {
		k.methods[i] = newMethod(k, mi)
	}

	k.fields = make([]*Field, len(cf.Fields))
	for i, fi := range cf.Fields {
		width := SlotWidth(fi.Descriptor)
		var slotIndex int
		if fi.IsStatic() {
			slotIndex = k.staticSlotCount
			k.staticSlotCount += width
		} else {
			slotIndex = k.instanceSlotCount
			k.instanceSlotCount += width
		}
		k.fields[i] = newField(k, fi, slotIndex)
	}

	k.statics = make([]Slot, k.staticSlotCount)
	for _, f := range k.fields {
		if f.IsStatic() {
			k.statics[f.SlotIndex] = DefaultSlotValue(f.Descriptor)
		}
	}

	return k
}

// InstanceSlotCount reports how many Slots one instance of this class
// needs (heap allocation is out of scope, but the count is still computed
// per §4.6 so it can be tested and exposed to future object support).
func (k *Klass) InstanceSlotCount() int { return k.instanceSlotCount }

// StaticSlotCount reports how many Slots this class's static storage uses.
func (k *Klass) StaticSlotCount() int { return k.staticSlotCount }

var errNoSuperclass = jvmerr.New(jvmerr.MalformedClass, "only java/lang/Object may omit a superclass")

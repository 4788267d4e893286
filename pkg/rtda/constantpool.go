package rtda

import (
	"github.com/gojvm/gojvm/internal/jvmerr"
	"github.com/gojvm/gojvm/pkg/classfile"
)

// RuntimeConstantPool lazily resolves symbolic references from a Klass's
// static ConstantPool into live *Klass/*Field/*Method pointers, literals,
// and string values, per §4.4. Resolution is monotonic: once a slot holds
// a resolved value, it never reverts to an unresolved state. An unresolved
// slot is simply absent from `slots`; resolve_class/resolve_field/
// resolve_method read the symbolic name/descriptor straight out of the
// static pool on first use rather than caching an intermediate symbolic
// form.
type RuntimeConstantPool struct {
	owner   *Klass
	static  classfile.ConstantPool
	slots   []interface{} // resolved values, lazily populated
}

func newRuntimeConstantPool(owner *Klass, static classfile.ConstantPool) *RuntimeConstantPool {
	return &RuntimeConstantPool{owner: owner, static: static, slots: make([]interface{}, len(static))}
}

func (cp *RuntimeConstantPool) resolved(index uint16) (interface{}, bool) {
	if int(index) < len(cp.slots) {
		if v := cp.slots[index]; v != nil {
			return v, true
		}
	}
	return nil, false
}

// ResolveClass resolves a Class entry to its Klass, loading it through the
// owning Klass's defining loader if this is the first resolution of this
// index. Idempotent: repeated calls return the cached Klass.
func (cp *RuntimeConstantPool) ResolveClass(index uint16) (*Klass, error) {
	if v, ok := cp.resolved(index); ok {
		k, ok := v.(*Klass)
		if !ok {
			return nil, jvmerr.New(jvmerr.MalformedClass, "constant pool index %d is not a class reference", index)
		}
		return k, nil
	}
	name, err := cp.static.ClassNameAt(index)
	if err != nil {
		return nil, err
	}
	k, err := cp.owner.area.resolveClass(cp.owner.loader, name)
	if err != nil {
		return nil, err
	}
	cp.slots[index] = k
	return k, nil
}

// ResolveNameAndType resolves a NameAndType entry to (name, descriptor).
// NameAndType entries carry no loader-dependent state, so this is a pure
// lookup rather than a lazily-cached resolution.
func (cp *RuntimeConstantPool) ResolveNameAndType(index uint16) (name, descriptor string, err error) {
	return cp.static.NameAndTypeAt(index)
}

// ResolveField resolves a Fieldref entry to its Field, per §4.4: resolve
// the owning class first, then walk its superclass chain via find_field.
func (cp *RuntimeConstantPool) ResolveField(index uint16) (*Field, error) {
	if v, ok := cp.resolved(index); ok {
		f, ok := v.(*Field)
		if !ok {
			return nil, jvmerr.New(jvmerr.MalformedClass, "constant pool index %d is not a field reference", index)
		}
		return f, nil
	}
	entry, err := cp.static.EntryAt(index)
	if err != nil {
		return nil, err
	}
	fr, ok := entry.(classfile.ConstantFieldref)
	if !ok {
		return nil, jvmerr.New(jvmerr.MalformedClass, "constant pool index %d is not Fieldref", index)
	}
	k, err := cp.ResolveClass(fr.ClassIndex)
	if err != nil {
		return nil, err
	}
	name, descriptor, err := cp.static.NameAndTypeAt(fr.NameAndTypeIndex)
	if err != nil {
		return nil, err
	}
	f := k.FindField(name, descriptor)
	if f == nil {
		return nil, jvmerr.New(jvmerr.FieldNotFound, "%s.%s:%s", mustClassName(k), name, descriptor)
	}
	cp.slots[index] = f
	return f, nil
}

// ResolveMethod resolves a Methodref entry to its Method, per §4.4: resolve
// the owning class first, then walk its superclass chain via find_method.
// Interface method resolution is out of scope (§9 open question 4).
func (cp *RuntimeConstantPool) ResolveMethod(index uint16) (*Method, error) {
	if v, ok := cp.resolved(index); ok {
		m, ok := v.(*Method)
		if !ok {
			return nil, jvmerr.New(jvmerr.MalformedClass, "constant pool index %d is not a method reference", index)
		}
		return m, nil
	}
	entry, err := cp.static.EntryAt(index)
	if err != nil {
		return nil, err
	}
	mr, ok := entry.(classfile.ConstantMethodref)
	if !ok {
		return nil, jvmerr.New(jvmerr.MalformedClass, "constant pool index %d is not Methodref", index)
	}
	k, err := cp.ResolveClass(mr.ClassIndex)
	if err != nil {
		return nil, err
	}
	name, descriptor, err := cp.static.NameAndTypeAt(mr.NameAndTypeIndex)
	if err != nil {
		return nil, err
	}
	m := k.FindMethod(name, descriptor)
	if m == nil {
		return nil, jvmerr.New(jvmerr.MethodNotFound, "%s.%s%s", mustClassName(k), name, descriptor)
	}
	cp.slots[index] = m
	return m, nil
}

// ResolveLiteralOrString resolves an Integer/Float/Long/Double/String
// constant to a Go value suitable for pushing directly on the operand
// stack. String entries resolve to their Go string (no java.lang.String
// instance, since the heap is out of scope).
func (cp *RuntimeConstantPool) ResolveLiteralOrString(index uint16) (interface{}, error) {
	entry, err := cp.static.EntryAt(index)
	if err != nil {
		return nil, err
	}
	switch v := entry.(type) {
	case classfile.ConstantInteger:
		return v.Value, nil
	case classfile.ConstantFloat:
		return v.Value, nil
	case classfile.ConstantLong:
		return v.Value, nil
	case classfile.ConstantDouble:
		return v.Value, nil
	case classfile.ConstantString:
		return cp.static.Utf8At(v.StringIndex)
	default:
		return nil, jvmerr.New(jvmerr.MalformedClass, "constant pool index %d is not a loadable constant", index)
	}
}

func mustClassName(k *Klass) string {
	name, err := k.ClassFile.ClassName()
	if err != nil {
		return "<unknown>"
	}
	return name
}

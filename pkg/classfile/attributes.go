package classfile

import "github.com/gojvm/gojvm/internal/jvmerr"

// ExceptionHandler is one entry of a Code attribute's exception table.
type ExceptionHandler struct {
	StartPC   uint16
	EndPC     uint16
	HandlerPC uint16
	CatchType uint16 // 0 means "any" (finally)
}

// CodeAttribute is the parsed body of a Code attribute, JVMS 4.7.3.
type CodeAttribute struct {
	MaxStack       uint16
	MaxLocals      uint16
	Code           []byte
	ExceptionTable []ExceptionHandler
}

// BootstrapMethod is one entry of a BootstrapMethods attribute, JVMS 4.7.23.
// Retained only so the parser can walk past invokedynamic-bearing class
// files without losing offset alignment; this VM never resolves a call site.
type BootstrapMethod struct {
	MethodRef       uint16
	Arguments       []uint16
}

// GenericAttribute is the fallback for any attribute name this parser does
// not interpret: the raw bytes are kept verbatim so round-tripping and
// forward-compatibility inspection remain possible.
type GenericAttribute struct {
	Data []byte
}

// Attribute is one parsed attribute_info entry. Exactly one of the Code/
// ConstantValue/Exceptions/BootstrapMethods/Generic fields is meaningful,
// selected by Name.
type Attribute struct {
	Name             string
	Code             *CodeAttribute
	ConstantValue    *uint16 // constant pool index
	Exceptions       []uint16
	BootstrapMethods []BootstrapMethod
	Generic          *GenericAttribute
}

// AttributeTable is an ordered list of attributes, as they appear on a
// class, field, method, or Code attribute in the class file.
type AttributeTable []Attribute

// ByName returns the first attribute with the given name, or nil.
func (t AttributeTable) ByName(name string) *Attribute {
	for i := range t {
		if t[i].Name == name {
			return &t[i]
		}
	}
	return nil
}

// parseAttributes reads attributes_count attribute_info structures and
// dispatches each to its interpreter by name, falling back to Generic for
// anything unrecognized. This is the attribute factory named in the spec.
func parseAttributes(r *Reader, pool ConstantPool, count uint16) (AttributeTable, error) {
	table := make(AttributeTable, 0, count)
	for i := uint16(0); i < count; i++ {
		nameIndex, err := r.ReadU2()
		if err != nil {
			return nil, jvmerr.Wrap(jvmerr.MalformedClass, err, "reading attribute_name_index")
		}
		length, err := r.ReadU4()
		if err != nil {
			return nil, jvmerr.Wrap(jvmerr.MalformedClass, err, "reading attribute_length")
		}
		name, err := pool.Utf8At(nameIndex)
		if err != nil {
			return nil, jvmerr.Wrap(jvmerr.MalformedClass, err, "resolving attribute name")
		}
		raw, err := r.ReadBytes(int(length))
		if err != nil {
			return nil, jvmerr.Wrap(jvmerr.MalformedClass, err, "reading attribute %q body", name)
		}
		attr, err := parseAttributeBody(name, raw, pool)
		if err != nil {
			return nil, err
		}
		table = append(table, attr)
	}
	return table, nil
}

func parseAttributeBody(name string, raw []byte, pool ConstantPool) (Attribute, error) {
	switch name {
	case "Code":
		code, err := parseCodeAttribute(raw, pool)
		if err != nil {
			return Attribute{}, err
		}
		return Attribute{Name: name, Code: code}, nil
	case "ConstantValue":
		r := NewReader(raw)
		idx, err := r.ReadU2()
		if err != nil {
			return Attribute{}, jvmerr.Wrap(jvmerr.MalformedClass, err, "reading ConstantValue index")
		}
		return Attribute{Name: name, ConstantValue: &idx}, nil
	case "Exceptions":
		r := NewReader(raw)
		count, err := r.ReadU2()
		if err != nil {
			return Attribute{}, jvmerr.Wrap(jvmerr.MalformedClass, err, "reading Exceptions count")
		}
		indexes := make([]uint16, count)
		for i := range indexes {
			idx, err := r.ReadU2()
			if err != nil {
				return Attribute{}, jvmerr.Wrap(jvmerr.MalformedClass, err, "reading exception_index_table[%d]", i)
			}
			indexes[i] = idx
		}
		return Attribute{Name: name, Exceptions: indexes}, nil
	case "BootstrapMethods":
		methods, err := parseBootstrapMethods(raw)
		if err != nil {
			return Attribute{}, err
		}
		return Attribute{Name: name, BootstrapMethods: methods}, nil
	default:
		return Attribute{Name: name, Generic: &GenericAttribute{Data: raw}}, nil
	}
}

func parseCodeAttribute(raw []byte, pool ConstantPool) (*CodeAttribute, error) {
	r := NewReader(raw)
	maxStack, err := r.ReadU2()
	if err != nil {
		return nil, jvmerr.Wrap(jvmerr.MalformedClass, err, "reading Code.max_stack")
	}
	maxLocals, err := r.ReadU2()
	if err != nil {
		return nil, jvmerr.Wrap(jvmerr.MalformedClass, err, "reading Code.max_locals")
	}
	codeLength, err := r.ReadU4()
	if err != nil {
		return nil, jvmerr.Wrap(jvmerr.MalformedClass, err, "reading Code.code_length")
	}
	code, err := r.ReadBytes(int(codeLength))
	if err != nil {
		return nil, jvmerr.Wrap(jvmerr.MalformedClass, err, "reading Code.code")
	}
	excCount, err := r.ReadU2()
	if err != nil {
		return nil, jvmerr.Wrap(jvmerr.MalformedClass, err, "reading Code.exception_table_length")
	}
	handlers := make([]ExceptionHandler, excCount)
	for i := range handlers {
		startPC, err := r.ReadU2()
		if err != nil {
			return nil, err
		}
		endPC, err := r.ReadU2()
		if err != nil {
			return nil, err
		}
		handlerPC, err := r.ReadU2()
		if err != nil {
			return nil, err
		}
		catchType, err := r.ReadU2()
		if err != nil {
			return nil, err
		}
		handlers[i] = ExceptionHandler{StartPC: startPC, EndPC: endPC, HandlerPC: handlerPC, CatchType: catchType}
	}
	// Nested attributes (LineNumberTable, LocalVariableTable, StackMapTable,
	// ...) follow; none are interpreted by this VM, so they are skipped by
	// running the generic attribute factory and discarding the result.
	if r.Len() > 0 {
		attrCount, err := r.ReadU2()
		if err != nil {
			return nil, jvmerr.Wrap(jvmerr.MalformedClass, err, "reading Code.attributes_count")
		}
		if _, err := parseAttributes(r, pool, attrCount); err != nil {
			return nil, err
		}
	}
	return &CodeAttribute{MaxStack: maxStack, MaxLocals: maxLocals, Code: code, ExceptionTable: handlers}, nil
}

func parseBootstrapMethods(raw []byte) ([]BootstrapMethod, error) {
	r := NewReader(raw)
	count, err := r.ReadU2()
	if err != nil {
		return nil, jvmerr.Wrap(jvmerr.MalformedClass, err, "reading num_bootstrap_methods")
	}
	methods := make([]BootstrapMethod, count)
	for i := range methods {
		ref, err := r.ReadU2()
		if err != nil {
			return nil, err
		}
		argCount, err := r.ReadU2()
		if err != nil {
			return nil, err
		}
		args := make([]uint16, argCount)
		for j := range args {
			a, err := r.ReadU2()
			if err != nil {
				return nil, err
			}
			args[j] = a
		}
		methods[i] = BootstrapMethod{MethodRef: ref, Arguments: args}
	}
	return methods, nil
}

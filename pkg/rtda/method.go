package rtda

import "github.com/gojvm/gojvm/pkg/classfile"

// Method is the runtime mirror of a method_info, owned by its declaring
// Klass and stored in the MethodArea.
type Method struct {
	Owner       *Klass
	Name        string
	Descriptor  string
	AccessFlags uint16
	MaxStack    uint16
	MaxLocals   uint16
	Code        []byte // nil for native/abstract methods

	ExceptionTable []classfile.ExceptionHandler
}

// IsStatic reports whether ACC_STATIC is set.
func (m *Method) IsStatic() bool { return m.AccessFlags&classfile.AccStatic != 0 }

// IsNative reports whether ACC_NATIVE is set. This VM never binds a native
// implementation; interpreting a frame for a native method is an error.
func (m *Method) IsNative() bool { return m.AccessFlags&classfile.AccNative != 0 }

// IsAbstract reports whether ACC_ABSTRACT is set.
func (m *Method) IsAbstract() bool { return m.AccessFlags&classfile.AccAbstract != 0 }

// newMethod builds a Method from its class-file counterpart, per §4.5
// Method Preparation: native methods leave Code nil, abstract methods need
// no Code, concrete methods must already have been validated to carry one
// by the parser.
func newMethod(owner *Klass, info classfile.MethodInfo) *Method {
	m := &Method{
		Owner:       owner,
		Name:        info.Name,
		Descriptor:  info.Descriptor,
		AccessFlags: info.AccessFlags,
	}
	if info.Code != nil {
		m.MaxStack = info.Code.MaxStack
		m.MaxLocals = info.Code.MaxLocals
		m.Code = info.Code.Code
		m.ExceptionTable = info.Code.ExceptionTable
	}
	return m
}

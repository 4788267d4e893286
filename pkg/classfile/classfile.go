package classfile

// Access flag bits relevant to the subset this VM interprets, JVMS 4.1/4.5/4.6.
const (
	AccPublic    = 0x0001
	AccPrivate   = 0x0002
	AccProtected = 0x0004
	AccStatic    = 0x0008
	AccFinal     = 0x0010
	AccSuper     = 0x0020
	AccInterface = 0x0200
	AccAbstract  = 0x0400
	AccNative    = 0x0100
)

// FieldInfo is one parsed field_info structure, JVMS 4.5.
type FieldInfo struct {
	AccessFlags uint16
	Name        string
	Descriptor  string
	Attributes  AttributeTable
}

// IsStatic reports whether ACC_STATIC is set.
func (f FieldInfo) IsStatic() bool { return f.AccessFlags&AccStatic != 0 }

// MethodInfo is one parsed method_info structure, JVMS 4.6.
type MethodInfo struct {
	AccessFlags uint16
	Name        string
	Descriptor  string
	Attributes  AttributeTable
	Code        *CodeAttribute // nil for native/abstract methods
}

// IsStatic reports whether ACC_STATIC is set.
func (m MethodInfo) IsStatic() bool { return m.AccessFlags&AccStatic != 0 }

// IsNative reports whether ACC_NATIVE is set.
func (m MethodInfo) IsNative() bool { return m.AccessFlags&AccNative != 0 }

// IsAbstract reports whether ACC_ABSTRACT is set.
func (m MethodInfo) IsAbstract() bool { return m.AccessFlags&AccAbstract != 0 }

// ClassFile is the fully-parsed representation of one .class file, JVMS 4.1.
type ClassFile struct {
	MinorVersion uint16
	MajorVersion uint16
	ConstantPool ConstantPool
	AccessFlags  uint16
	ThisClass    uint16
	SuperClass   uint16 // 0 only for java/lang/Object
	Interfaces   []uint16
	Fields       []FieldInfo
	Methods      []MethodInfo
	Attributes   AttributeTable
}

// ClassName resolves this_class to its binary name.
func (cf *ClassFile) ClassName() (string, error) {
	return cf.ConstantPool.ClassNameAt(cf.ThisClass)
}

// SuperClassName resolves super_class to its binary name, or ("", nil) for
// java.lang.Object, which has no superclass.
func (cf *ClassFile) SuperClassName() (string, error) {
	if cf.SuperClass == 0 {
		return "", nil
	}
	return cf.ConstantPool.ClassNameAt(cf.SuperClass)
}

// InterfaceNames resolves every entry of the interfaces table to its binary name.
func (cf *ClassFile) InterfaceNames() ([]string, error) {
	names := make([]string, len(cf.Interfaces))
	for i, idx := range cf.Interfaces {
		name, err := cf.ConstantPool.ClassNameAt(idx)
		if err != nil {
			return nil, err
		}
		names[i] = name
	}
	return names, nil
}

// FindMethod returns the method with the given name and descriptor declared
// directly on this class file, or nil.
func (cf *ClassFile) FindMethod(name, descriptor string) *MethodInfo {
	for i := range cf.Methods {
		if cf.Methods[i].Name == name && cf.Methods[i].Descriptor == descriptor {
			return &cf.Methods[i]
		}
	}
	return nil
}

// FindMethodByName returns the first method with the given name, ignoring
// descriptor, or nil. Convenient for methods known not to be overloaded.
func (cf *ClassFile) FindMethodByName(name string) *MethodInfo {
	for i := range cf.Methods {
		if cf.Methods[i].Name == name {
			return &cf.Methods[i]
		}
	}
	return nil
}

// FindField returns the field with the given name and descriptor declared
// directly on this class file, or nil.
func (cf *ClassFile) FindField(name, descriptor string) *FieldInfo {
	for i := range cf.Fields {
		if cf.Fields[i].Name == name && cf.Fields[i].Descriptor == descriptor {
			return &cf.Fields[i]
		}
	}
	return nil
}

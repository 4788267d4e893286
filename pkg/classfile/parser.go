package classfile

import (
	"io"
	"os"

	"github.com/gojvm/gojvm/internal/jvmerr"
)

const classMagic = 0xCAFEBABE

// ParseFile opens and parses a .class file from disk.
func ParseFile(path string) (*ClassFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, jvmerr.Wrap(jvmerr.ClassNotFound, err, "opening %s", path)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads a complete class file from r, validating structure as it
// goes in the fixed order JVMS 4.1 specifies.
func Parse(r io.Reader) (*ClassFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, jvmerr.Wrap(jvmerr.MalformedClass, err, "reading class file bytes")
	}
	br := NewReader(data)

	magic, err := br.ReadU4()
	if err != nil {
		return nil, jvmerr.Wrap(jvmerr.MalformedClass, err, "reading magic")
	}
	if magic != classMagic {
		return nil, jvmerr.New(jvmerr.InvalidMagic, "got 0x%08X, want 0x%08X", magic, classMagic)
	}

	minor, err := br.ReadU2()
	if err != nil {
		return nil, err
	}
	major, err := br.ReadU2()
	if err != nil {
		return nil, err
	}

	cpCount, err := br.ReadU2()
	if err != nil {
		return nil, err
	}
	pool, err := ParseConstantPool(br, cpCount)
	if err != nil {
		return nil, err
	}

	accessFlags, err := br.ReadU2()
	if err != nil {
		return nil, err
	}
	thisClass, err := br.ReadU2()
	if err != nil {
		return nil, err
	}
	superClass, err := br.ReadU2()
	if err != nil {
		return nil, err
	}

	// Interfaces are read immediately after interfaces_count and before
	// fields, per JVMS 4.1's declared layout.
	interfacesCount, err := br.ReadU2()
	if err != nil {
		return nil, err
	}
	interfaces := make([]uint16, interfacesCount)
	for i := range interfaces {
		idx, err := br.ReadU2()
		if err != nil {
			return nil, err
		}
		interfaces[i] = idx
	}

	fields, err := parseFields(br, pool)
	if err != nil {
		return nil, err
	}

	methods, err := parseMethods(br, pool)
	if err != nil {
		return nil, err
	}

	classAttrCount, err := br.ReadU2()
	if err != nil {
		return nil, err
	}
	classAttrs, err := parseAttributes(br, pool, classAttrCount)
	if err != nil {
		return nil, err
	}

	return &ClassFile{
		MinorVersion: minor,
		MajorVersion: major,
		ConstantPool: pool,
		AccessFlags:  accessFlags,
		ThisClass:    thisClass,
		SuperClass:   superClass,
		Interfaces:   interfaces,
		Fields:       fields,
		Methods:      methods,
		Attributes:   classAttrs,
	}, nil
}

func parseFields(r *Reader, pool ConstantPool) ([]FieldInfo, error) {
	count, err := r.ReadU2()
	if err != nil {
		return nil, err
	}
	fields := make([]FieldInfo, count)
	for i := range fields {
		accessFlags, err := r.ReadU2()
		if err != nil {
			return nil, err
		}
		nameIndex, err := r.ReadU2()
		if err != nil {
			return nil, err
		}
		descIndex, err := r.ReadU2()
		if err != nil {
			return nil, err
		}
		attrCount, err := r.ReadU2()
		if err != nil {
			return nil, err
		}
		attrs, err := parseAttributes(r, pool, attrCount)
		if err != nil {
			return nil, err
		}
		name, err := pool.Utf8At(nameIndex)
		if err != nil {
			return nil, jvmerr.Wrap(jvmerr.MalformedClass, err, "resolving field name")
		}
		descriptor, err := pool.Utf8At(descIndex)
		if err != nil {
			return nil, jvmerr.Wrap(jvmerr.MalformedClass, err, "resolving field descriptor")
		}
		fields[i] = FieldInfo{AccessFlags: accessFlags, Name: name, Descriptor: descriptor, Attributes: attrs}
	}
	return fields, nil
}

func parseMethods(r *Reader, pool ConstantPool) ([]MethodInfo, error) {
	count, err := r.ReadU2()
	if err != nil {
		return nil, err
	}
	methods := make([]MethodInfo, count)
	for i := range methods {
		accessFlags, err := r.ReadU2()
		if err != nil {
			return nil, err
		}
		nameIndex, err := r.ReadU2()
		if err != nil {
			return nil, err
		}
		descIndex, err := r.ReadU2()
		if err != nil {
			return nil, err
		}
		attrCount, err := r.ReadU2()
		if err != nil {
			return nil, err
		}
		attrs, err := parseAttributes(r, pool, attrCount)
		if err != nil {
			return nil, err
		}
		name, err := pool.Utf8At(nameIndex)
		if err != nil {
			return nil, jvmerr.Wrap(jvmerr.MalformedClass, err, "resolving method name")
		}
		descriptor, err := pool.Utf8At(descIndex)
		if err != nil {
			return nil, jvmerr.Wrap(jvmerr.MalformedClass, err, "resolving method descriptor")
		}
		m := MethodInfo{AccessFlags: accessFlags, Name: name, Descriptor: descriptor, Attributes: attrs}
		if code := attrs.ByName("Code"); code != nil {
			m.Code = code.Code
		} else if !m.IsNative() && !m.IsAbstract() {
			return nil, jvmerr.New(jvmerr.MalformedClass, "concrete method %s%s has no Code attribute", name, descriptor)
		}
		methods[i] = m
	}
	return methods, nil
}

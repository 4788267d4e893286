package interpreter

import (
	"strings"

	"github.com/gojvm/gojvm/internal/jvmerr"
)

// ParamCategories parses a method descriptor's parameter section and
// returns one category byte per parameter, in order: 'I' for int-like
// (int/short/char/byte/boolean), 'J' for long, 'F' for float, 'D' for
// double, 'A' for reference/array. Used to transfer arguments between
// operand stacks and local variable arrays without losing the two-slot
// long/double convention to a blind positional copy.
func ParamCategories(descriptor string) ([]byte, error) {
	if len(descriptor) == 0 || descriptor[0] != '(' {
		return nil, jvmerr.New(jvmerr.MalformedClass, "descriptor %q missing '('", descriptor)
	}
	var categories []byte
	i := 1
	for i < len(descriptor) && descriptor[i] != ')' {
		switch descriptor[i] {
		case 'J':
			categories = append(categories, 'J')
			i++
		case 'D':
			categories = append(categories, 'D')
			i++
		case 'F':
			categories = append(categories, 'F')
			i++
		case 'L':
			j := strings.IndexByte(descriptor[i:], ';')
			if j < 0 {
				return nil, jvmerr.New(jvmerr.MalformedClass, "descriptor %q has unterminated object type", descriptor)
			}
			categories = append(categories, 'A')
			i += j + 1
		case '[':
			i++
			for i < len(descriptor) && descriptor[i] == '[' {
				i++
			}
			if i < len(descriptor) && descriptor[i] == 'L' {
				j := strings.IndexByte(descriptor[i:], ';')
				if j < 0 {
					return nil, jvmerr.New(jvmerr.MalformedClass, "descriptor %q has unterminated array element type", descriptor)
				}
				i += j + 1
			} else {
				i++
			}
			categories = append(categories, 'A')
		default:
			categories = append(categories, 'I')
			i++
		}
	}
	return categories, nil
}

// ReturnCategory classifies a descriptor's return type for RETURN-family
// dispatch: 'I' for int-like (int/short/char/byte/boolean), 'J' for long,
// 'F' for float, 'D' for double, 'A' for reference, 'V' for void.
func ReturnCategory(descriptor string) byte {
	idx := strings.IndexByte(descriptor, ')')
	if idx < 0 || idx+1 >= len(descriptor) {
		return 'V'
	}
	switch descriptor[idx+1] {
	case 'V':
		return 'V'
	case 'J':
		return 'J'
	case 'F':
		return 'F'
	case 'D':
		return 'D'
	case 'L', '[':
		return 'A'
	default:
		return 'I'
	}
}

package classfile

import "github.com/gojvm/gojvm/internal/jvmerr"

// Reader is a bounds-checked cursor over a borrowed byte span. It never
// copies the underlying slice on construction; callers retain ownership.
type Reader struct {
	data []byte
	pos  int
}

// NewReader wraps data for sequential, bounds-checked reads.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Pos returns the current read offset.
func (r *Reader) Pos() int { return r.pos }

// Len returns the number of unread bytes remaining.
func (r *Reader) Len() int { return len(r.data) - r.pos }

func (r *Reader) checkBounds(n int) error {
	if r.pos+n > len(r.data) {
		return jvmerr.New(jvmerr.OutOfBounds, "read of %d bytes at offset %d exceeds length %d", n, r.pos, len(r.data))
	}
	return nil
}

// ReadU1 reads an unsigned 8-bit value.
func (r *Reader) ReadU1() (uint8, error) {
	if err := r.checkBounds(1); err != nil {
		return 0, err
	}
	v := r.data[r.pos]
	r.pos++
	return v, nil
}

// ReadU2 reads a big-endian unsigned 16-bit value.
func (r *Reader) ReadU2() (uint16, error) {
	if err := r.checkBounds(2); err != nil {
		return 0, err
	}
	v := uint16(r.data[r.pos])<<8 | uint16(r.data[r.pos+1])
	r.pos += 2
	return v, nil
}

// ReadU4 reads a big-endian unsigned 32-bit value.
func (r *Reader) ReadU4() (uint32, error) {
	if err := r.checkBounds(4); err != nil {
		return 0, err
	}
	v := uint32(r.data[r.pos])<<24 | uint32(r.data[r.pos+1])<<16 |
		uint32(r.data[r.pos+2])<<8 | uint32(r.data[r.pos+3])
	r.pos += 4
	return v, nil
}

// ReadU8 reads a big-endian unsigned 64-bit value.
func (r *Reader) ReadU8() (uint64, error) {
	hi, err := r.ReadU4()
	if err != nil {
		return 0, err
	}
	lo, err := r.ReadU4()
	if err != nil {
		return 0, err
	}
	return uint64(hi)<<32 | uint64(lo), nil
}

// ReadBytes returns the next n bytes as a fresh slice, advancing the cursor.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if err := r.checkBounds(n); err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	copy(buf, r.data[r.pos:r.pos+n])
	r.pos += n
	return buf, nil
}

// ReadBytesInto copies the next len(dst) bytes into dst, failing with
// InvalidArg-shaped MalformedClass if dst is nil.
func (r *Reader) ReadBytesInto(dst []byte) error {
	if dst == nil {
		return jvmerr.New(jvmerr.MalformedClass, "ReadBytesInto: destination buffer is nil")
	}
	if err := r.checkBounds(len(dst)); err != nil {
		return err
	}
	copy(dst, r.data[r.pos:r.pos+len(dst)])
	r.pos += len(dst)
	return nil
}

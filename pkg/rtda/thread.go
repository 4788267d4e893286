package rtda

import "github.com/gojvm/gojvm/internal/jvmerr"

// maxFrameDepth guards against runaway recursion in the absence of a real
// StackOverflowError heap object to throw.
const maxFrameDepth = 1024

// Thread owns one call stack of Frames. The interpreter drives exactly one
// Thread per Interpret call; this VM does not support concurrent Java
// threads (see the concurrency model in SPEC_FULL.md).
type Thread struct {
	frames []*Frame
}

// NewThread returns an empty call stack.
func NewThread() *Thread { return &Thread{} }

// PushFrame activates a new frame, failing if the depth guard is exceeded.
func (t *Thread) PushFrame(f *Frame) error {
	if len(t.frames) >= maxFrameDepth {
		return jvmerr.New(jvmerr.MalformedClass, "frame depth exceeded %d, probable infinite recursion", maxFrameDepth)
	}
	t.frames = append(t.frames, f)
	return nil
}

// PopFrame deactivates and discards the current top frame.
func (t *Thread) PopFrame() {
	t.frames = t.frames[:len(t.frames)-1]
}

// CurrentFrame returns the active frame.
func (t *Thread) CurrentFrame() *Frame { return t.frames[len(t.frames)-1] }

// Depth reports how many frames are on the stack.
func (t *Thread) Depth() int { return len(t.frames) }

// IsEmpty reports whether the call stack has no frames.
func (t *Thread) IsEmpty() bool { return len(t.frames) == 0 }

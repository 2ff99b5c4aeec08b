package core

import (
	"fmt"
	"runtime"

	"github.com/devblok/vram/driver"
)

// Buffer wraps raw linear device memory. Instances come from
// Context.NewBuffer or Context.ReserveBuffer, a zero value Buffer has
// no device object and fails every operation.
type Buffer struct {
	ctx     *Context
	handle  driver.Buffer
	size    int
	dynamic bool

	// Extra is an open slot for the application, nothing in this
	// package reads or writes it.
	Extra any
}

var _ Resource = (*Buffer)(nil)

// Size returns the allocation size in bytes. It keeps answering after
// release, Orphan is the only call that changes it.
func (b *Buffer) Size() int {
	return b.size
}

// Dynamic returns the usage hint the buffer was created with.
func (b *Buffer) Dynamic() bool {
	return b.dynamic
}

// ID returns the numeric name of the device object, zero once
// released.
func (b *Buffer) ID() uint32 {
	defer runtime.KeepAlive(b)
	return b.driver().ID()
}

// Released reports whether the device object is gone.
func (b *Buffer) Released() bool {
	_, ok := b.handle.(driver.Invalid)
	return ok
}

// Write stores data at offset.
func (b *Buffer) Write(data []byte, offset int) error {
	defer runtime.KeepAlive(b)
	return b.driver().Write(data, offset)
}

// WriteChunks splits data into count equal chunks and stores chunk i
// at start plus i times step.
func (b *Buffer) WriteChunks(data []byte, start, step, count int) error {
	defer runtime.KeepAlive(b)
	return b.driver().WriteChunks(data, start, step, count)
}

// Read returns size bytes starting at offset. A size of -1 reads
// everything from offset to the end.
func (b *Buffer) Read(size, offset int) ([]byte, error) {
	defer runtime.KeepAlive(b)
	if size == -1 {
		size = b.size - offset
	}
	if size < 0 {
		size = 0
	}
	p := make([]byte, size)
	if err := b.driver().Read(p, offset); err != nil {
		return nil, err
	}
	return p, nil
}

// ReadInto fills dst with size bytes starting at offset and returns
// how many landed. A size of -1 reads everything from offset to the
// end.
func (b *Buffer) ReadInto(dst []byte, size, offset int) (int, error) {
	defer runtime.KeepAlive(b)
	if size == -1 {
		size = b.size - offset
	}
	if size < 0 || size > len(dst) {
		return 0, fmt.Errorf("%w: destination is %d bytes, read takes %d", driver.ErrOutOfRange, len(dst), size)
	}
	if err := b.driver().Read(dst[:size], offset); err != nil {
		return 0, err
	}
	return size, nil
}

// ReadIntoBuffer copies size bytes at offset into another buffer at
// writeOffset without the data leaving the device.
func (b *Buffer) ReadIntoBuffer(dst *Buffer, size, offset, writeOffset int) error {
	defer runtime.KeepAlive(b)
	defer runtime.KeepAlive(dst)
	return b.driver().ReadInto(dst.driver(), size, offset, writeOffset)
}

// ReadChunks gathers count chunks of chunkSize bytes, chunk i taken
// at start plus i times step.
func (b *Buffer) ReadChunks(chunkSize, start, step, count int) ([]byte, error) {
	defer runtime.KeepAlive(b)
	if chunkSize < 0 || count < 0 {
		return nil, fmt.Errorf("%w: %d chunks of %d", driver.ErrChunkLayout, count, chunkSize)
	}
	p := make([]byte, chunkSize*count)
	if err := b.driver().ReadChunks(p, chunkSize, start, step, count); err != nil {
		return nil, err
	}
	return p, nil
}

// ReadChunksInto gathers like ReadChunks but lands the chunks in
// another buffer at writeOffset.
func (b *Buffer) ReadChunksInto(dst *Buffer, chunkSize, start, step, count, writeOffset int) error {
	defer runtime.KeepAlive(b)
	defer runtime.KeepAlive(dst)
	return b.driver().ReadChunksInto(dst.driver(), chunkSize, start, step, count, writeOffset)
}

// Clear fills size bytes at offset with the chunk pattern, or with
// zeroes when chunk is nil. A size of -1 clears everything from
// offset to the end.
func (b *Buffer) Clear(size, offset int, chunk []byte) error {
	defer runtime.KeepAlive(b)
	return b.driver().Clear(size, offset, chunk)
}

// BindToUniformBlock attaches offset to offset+size to a uniform
// block binding slot. A size of -1 attaches everything from offset on.
func (b *Buffer) BindToUniformBlock(binding, offset, size int) error {
	defer runtime.KeepAlive(b)
	return b.driver().BindRange(driver.TargetUniformBlock, binding, offset, size)
}

// BindToStorageBuffer attaches offset to offset+size to a storage
// buffer binding slot. A size of -1 attaches everything from offset
// on.
func (b *Buffer) BindToStorageBuffer(binding, offset, size int) error {
	defer runtime.KeepAlive(b)
	return b.driver().BindRange(driver.TargetStorageBuffer, binding, offset, size)
}

// Orphan reallocates the data store, invalidating contents while
// keeping the same object name. A size of -1 keeps the current size.
// Useful to stream into a buffer without stalling on its last use.
func (b *Buffer) Orphan(size int) error {
	defer runtime.KeepAlive(b)
	if err := b.driver().Orphan(size); err != nil {
		return err
	}
	if size != -1 {
		b.size = size
	}
	return nil
}

// Bind ties the buffer to named vertex attributes for vertex array
// assembly. It moves no data.
func (b *Buffer) Bind(layout string, attribs ...string) Binding {
	return Binding{Buffer: b, Layout: layout, Attributes: attribs}
}

// Assign ties the buffer to a numbered attribute index. It moves no
// data.
func (b *Buffer) Assign(index int) Slot {
	return Slot{Buffer: b, Index: index}
}

// Equal reports whether both wrappers stand for the same live device
// object. Use the wrapper pointer or ID as a map key, not this.
func (b *Buffer) Equal(other *Buffer) bool {
	if other == nil {
		return false
	}
	if b == other {
		return true
	}
	if b.handle == nil || b.Released() {
		return false
	}
	return b.handle == other.handle
}

func (b *Buffer) String() string {
	switch {
	case b.handle == nil:
		return "<Buffer: incomplete>"
	case b.Released():
		return "<Buffer: released>"
	default:
		return fmt.Sprintf("<Buffer: %d>", b.handle.ID())
	}
}

// Release frees the device object. Further calls do nothing, further
// operations fail at the driver boundary.
func (b *Buffer) Release() {
	if b.handle == nil || b.Released() {
		return
	}
	id := b.handle.ID()
	b.handle.Release()
	b.handle = driver.Invalid{}
	runtime.SetFinalizer(b, nil)
	b.ctx.noteRelease("buffer", id)
}

// finalize runs when the garbage collector drops the wrapper. What
// happens to the device object depends on the context mode.
func (b *Buffer) finalize() {
	if b.ctx == nil || b.Released() {
		return
	}
	switch b.ctx.GC() {
	case GCAuto:
		b.handle.Release()
	case GCContext:
		b.ctx.enqueue(b.handle)
	}
}

func (b *Buffer) driver() driver.Buffer {
	if b.handle == nil {
		return driver.Invalid{}
	}
	return b.handle
}

package driver

import (
	"fmt"
	"sync/atomic"
)

type softBuffer struct {
	id       uint32
	dev      *SoftDevice
	data     []byte
	dynamic  bool
	released atomic.Bool
}

var _ Buffer = (*softBuffer)(nil)

func (b *softBuffer) ID() uint32 {
	if b.released.Load() {
		return 0
	}
	return b.id
}

func (b *softBuffer) Size() int {
	if b.released.Load() {
		return 0
	}
	return len(b.data)
}

func (b *softBuffer) Write(p []byte, offset int) error {
	if b.released.Load() {
		return ErrReleased
	}
	if offset < 0 || offset+len(p) > len(b.data) {
		return fmt.Errorf("%w: write of %d bytes at %d into %d", ErrOutOfRange, len(p), offset, len(b.data))
	}
	copy(b.data[offset:], p)
	return nil
}

func (b *softBuffer) WriteChunks(p []byte, start, step, count int) error {
	if b.released.Load() {
		return ErrReleased
	}
	chunkSize, err := chunkShape(len(p), start, step, count, len(b.data))
	if err != nil {
		return err
	}
	for i := 0; i < count; i++ {
		copy(b.data[start+i*step:], p[i*chunkSize:(i+1)*chunkSize])
	}
	return nil
}

func (b *softBuffer) Read(p []byte, offset int) error {
	if b.released.Load() {
		return ErrReleased
	}
	if offset < 0 || offset+len(p) > len(b.data) {
		return fmt.Errorf("%w: read of %d bytes at %d from %d", ErrOutOfRange, len(p), offset, len(b.data))
	}
	copy(p, b.data[offset:])
	return nil
}

func (b *softBuffer) ReadInto(dst Buffer, size, offset, writeOffset int) error {
	if b.released.Load() {
		return ErrReleased
	}
	target, err := b.dev.ownBuffer(dst)
	if err != nil {
		return err
	}
	n, err := resolveSpan(size, offset, len(b.data))
	if err != nil {
		return err
	}
	if writeOffset < 0 || writeOffset+n > len(target.data) {
		return fmt.Errorf("%w: %d bytes at %d into %d", ErrOutOfRange, n, writeOffset, len(target.data))
	}
	copy(target.data[writeOffset:], b.data[offset:offset+n])
	return nil
}

func (b *softBuffer) ReadChunks(p []byte, chunkSize, start, step, count int) error {
	if b.released.Load() {
		return ErrReleased
	}
	if chunkSize <= 0 || count <= 0 || len(p) != chunkSize*count {
		return fmt.Errorf("%w: %d chunks of %d into %d bytes", ErrChunkLayout, count, chunkSize, len(p))
	}
	if _, err := chunkShape(len(p), start, step, count, len(b.data)); err != nil {
		return err
	}
	for i := 0; i < count; i++ {
		copy(p[i*chunkSize:(i+1)*chunkSize], b.data[start+i*step:])
	}
	return nil
}

func (b *softBuffer) ReadChunksInto(dst Buffer, chunkSize, start, step, count, writeOffset int) error {
	if b.released.Load() {
		return ErrReleased
	}
	target, err := b.dev.ownBuffer(dst)
	if err != nil {
		return err
	}
	if chunkSize <= 0 || count <= 0 {
		return fmt.Errorf("%w: %d chunks of %d", ErrChunkLayout, count, chunkSize)
	}
	total := chunkSize * count
	if _, err := chunkShape(total, start, step, count, len(b.data)); err != nil {
		return err
	}
	if writeOffset < 0 || writeOffset+total > len(target.data) {
		return fmt.Errorf("%w: %d bytes at %d into %d", ErrOutOfRange, total, writeOffset, len(target.data))
	}
	for i := 0; i < count; i++ {
		copy(target.data[writeOffset+i*chunkSize:], b.data[start+i*step:start+i*step+chunkSize])
	}
	return nil
}

func (b *softBuffer) Clear(size, offset int, chunk []byte) error {
	if b.released.Load() {
		return ErrReleased
	}
	n, err := resolveSpan(size, offset, len(b.data))
	if err != nil {
		return err
	}
	span := b.data[offset : offset+n]
	if chunk == nil {
		for i := range span {
			span[i] = 0
		}
		return nil
	}
	if len(chunk) == 0 || n%len(chunk) != 0 {
		return fmt.Errorf("%w: pattern of %d into %d bytes", ErrChunkLayout, len(chunk), n)
	}
	for at := 0; at < n; at += len(chunk) {
		copy(span[at:], chunk)
	}
	return nil
}

func (b *softBuffer) BindRange(target BlockTarget, binding, offset, size int) error {
	if b.released.Load() {
		return ErrReleased
	}
	n, err := resolveSpan(size, offset, len(b.data))
	if err != nil {
		return err
	}
	return b.dev.bindRange(target, binding, RangeBinding{Buffer: b.id, Offset: offset, Size: n})
}

func (b *softBuffer) Orphan(size int) error {
	if b.released.Load() {
		return ErrReleased
	}
	if size == -1 {
		size = len(b.data)
	}
	if size <= 0 {
		return fmt.Errorf("%w: buffer size %d", ErrDimensions, size)
	}
	b.data = make([]byte, size)
	return nil
}

func (b *softBuffer) Release() {
	if b.released.Swap(true) {
		return
	}
	b.data = nil
	b.dev.forgetBuffer(b.id)
}

// chunkShape validates the strided layout shared by the chunk
// operations and returns the chunk size.
func chunkShape(total, start, step, count, limit int) (int, error) {
	if count <= 0 || total%count != 0 {
		return 0, fmt.Errorf("%w: %d bytes into %d chunks", ErrChunkLayout, total, count)
	}
	chunkSize := total / count
	for i := 0; i < count; i++ {
		at := start + i*step
		if at < 0 || at+chunkSize > limit {
			return 0, fmt.Errorf("%w: chunk %d spans %d to %d of %d", ErrOutOfRange, i, at, at+chunkSize, limit)
		}
	}
	return chunkSize, nil
}

package core

import (
	"fmt"
	"io"
	"runtime"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/devblok/vram/driver"
)

// NewContext wraps an open device in a resource context. The context
// is the only way to create resource wrappers and the drop point for
// handles whose wrappers got garbage collected.
func NewContext(dev driver.Device, cfg ContextConfiguration) (*Context, error) {
	if dev == nil {
		return nil, ErrNoDevice
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New()
		logger.SetOutput(io.Discard)
	}
	return &Context{
		dev: dev,
		gc:  cfg.GC,
		log: logger,
	}, nil
}

// Context owns the device connection and hands out resource wrappers.
// Data moving operations are single threaded, the deferred release
// queue is not, finalizers feed it from their own goroutine.
type Context struct {
	dev driver.Device
	log *log.Logger

	mutex    sync.Mutex
	gc       GCMode
	orphaned []Releasable
	released bool

	buffers   uint64
	textures  uint64
	collected uint64
}

// ContextStats counts what a context has handed out and taken back.
type ContextStats struct {
	Buffers   uint64
	Textures  uint64
	Collected uint64
	Pending   int
}

// GC returns the garbage collection mode.
func (ctx *Context) GC() GCMode {
	ctx.mutex.Lock()
	defer ctx.mutex.Unlock()
	return ctx.gc
}

// SetGC changes the garbage collection mode. It only affects wrappers
// collected after the change.
func (ctx *Context) SetGC(mode GCMode) {
	ctx.mutex.Lock()
	defer ctx.mutex.Unlock()
	ctx.gc = mode
}

// NewBuffer creates a buffer holding a copy of data. The dynamic flag
// is a usage hint handed to the device.
func (ctx *Context) NewBuffer(data []byte, dynamic bool) (*Buffer, error) {
	if err := ctx.usable(); err != nil {
		return nil, err
	}
	handle, err := ctx.dev.NewBuffer(data, 0, dynamic)
	if err != nil {
		return nil, fmt.Errorf("device.NewBuffer(): %w", err)
	}
	return ctx.adoptBuffer(handle, dynamic), nil
}

// ReserveBuffer creates an empty buffer of size bytes.
func (ctx *Context) ReserveBuffer(size int, dynamic bool) (*Buffer, error) {
	if err := ctx.usable(); err != nil {
		return nil, err
	}
	handle, err := ctx.dev.NewBuffer(nil, size, dynamic)
	if err != nil {
		return nil, fmt.Errorf("device.NewBuffer(): %w", err)
	}
	return ctx.adoptBuffer(handle, dynamic), nil
}

// NewTextureArray creates a texture with layers equally sized slices.
// A nil data leaves the pixels zeroed.
func (ctx *Context) NewTextureArray(width, height, layers, components int, dt DataType, data []byte) (*TextureArray, error) {
	if err := ctx.usable(); err != nil {
		return nil, err
	}
	handle, err := ctx.dev.NewTextureArray(width, height, layers, components, dt, data)
	if err != nil {
		return nil, fmt.Errorf("device.NewTextureArray(): %w", err)
	}
	tex := &TextureArray{
		ctx:        ctx,
		handle:     handle,
		width:      width,
		height:     height,
		layers:     layers,
		components: components,
		dtype:      dt,
	}
	ctx.adopt(&ctx.textures, tex.ID(), "texture array created")
	runtime.SetFinalizer(tex, (*TextureArray).finalize)
	return tex, nil
}

// NewTexture2D creates a two dimensional color texture. A nil data
// leaves the pixels zeroed.
func (ctx *Context) NewTexture2D(width, height, components int, dt DataType, data []byte) (*Texture, error) {
	return ctx.newTexture2D(width, height, components, dt, false, 0, data)
}

// NewDepthTexture2D creates a two dimensional depth texture with
// depth comparison enabled.
func (ctx *Context) NewDepthTexture2D(width, height int, data []byte) (*Texture, error) {
	return ctx.newTexture2D(width, height, 1, F32, true, 0, data)
}

// NewMultisampleTexture2D creates a two dimensional multisampled
// texture. It cannot carry initial data and rejects direct pixel
// access.
func (ctx *Context) NewMultisampleTexture2D(width, height, components int, dt DataType, samples int) (*Texture, error) {
	return ctx.newTexture2D(width, height, components, dt, false, samples, nil)
}

func (ctx *Context) newTexture2D(width, height, components int, dt DataType, depth bool, samples int, data []byte) (*Texture, error) {
	if err := ctx.usable(); err != nil {
		return nil, err
	}
	handle, err := ctx.dev.NewTexture2D(width, height, components, dt, depth, samples, data)
	if err != nil {
		return nil, fmt.Errorf("device.NewTexture2D(): %w", err)
	}
	tex := &Texture{
		ctx:        ctx,
		handle:     handle,
		width:      width,
		height:     height,
		components: components,
		dtype:      dt,
		depth:      depth,
		samples:    samples,
	}
	ctx.adopt(&ctx.textures, tex.ID(), "texture created")
	runtime.SetFinalizer(tex, (*Texture).finalize)
	return tex, nil
}

// CopyBuffer copies size bytes between two buffers without the data
// leaving the device. A size of -1 copies everything from readOffset
// to the end of the source.
func (ctx *Context) CopyBuffer(dst, src *Buffer, size, readOffset, writeOffset int) error {
	defer runtime.KeepAlive(dst)
	defer runtime.KeepAlive(src)
	return src.driver().ReadInto(dst.driver(), size, readOffset, writeOffset)
}

// CollectGarbage releases every handle parked on the deferred queue
// and returns how many there were.
func (ctx *Context) CollectGarbage() int {
	ctx.mutex.Lock()
	handles := ctx.orphaned
	ctx.orphaned = nil
	ctx.collected += uint64(len(handles))
	ctx.mutex.Unlock()
	for _, h := range handles {
		h.Release()
	}
	if len(handles) > 0 {
		ctx.log.WithField("count", len(handles)).Debug("deferred handles released")
	}
	return len(handles)
}

// PendingReleases returns the length of the deferred release queue.
func (ctx *Context) PendingReleases() int {
	ctx.mutex.Lock()
	defer ctx.mutex.Unlock()
	return len(ctx.orphaned)
}

// Stats returns creation and collection counters.
func (ctx *Context) Stats() ContextStats {
	ctx.mutex.Lock()
	defer ctx.mutex.Unlock()
	return ContextStats{
		Buffers:   ctx.buffers,
		Textures:  ctx.textures,
		Collected: ctx.collected,
		Pending:   len(ctx.orphaned),
	}
}

// MaxAnisotropy reports the anisotropic filtering limit of the device.
func (ctx *Context) MaxAnisotropy() float64 {
	return ctx.dev.MaxAnisotropy()
}

// Info reports the capabilities of the device behind the context.
func (ctx *Context) Info() driver.DeviceInfo {
	return ctx.dev.Info()
}

// Release drains the deferred queue and frees the device with every
// object still alive on it. The context cannot be used afterwards.
func (ctx *Context) Release() {
	ctx.mutex.Lock()
	if ctx.released {
		ctx.mutex.Unlock()
		return
	}
	ctx.released = true
	ctx.mutex.Unlock()
	ctx.CollectGarbage()
	ctx.dev.Release()
	ctx.log.Debug("context released")
}

func (ctx *Context) usable() error {
	ctx.mutex.Lock()
	defer ctx.mutex.Unlock()
	if ctx.released {
		return ErrContextReleased
	}
	return nil
}

func (ctx *Context) adoptBuffer(handle driver.Buffer, dynamic bool) *Buffer {
	buf := &Buffer{
		ctx:     ctx,
		handle:  handle,
		size:    handle.Size(),
		dynamic: dynamic,
	}
	ctx.adopt(&ctx.buffers, buf.ID(), "buffer created")
	runtime.SetFinalizer(buf, (*Buffer).finalize)
	return buf
}

func (ctx *Context) adopt(counter *uint64, id uint32, event string) {
	ctx.mutex.Lock()
	*counter++
	ctx.mutex.Unlock()
	ctx.log.WithField("id", id).Debug(event)
}

// enqueue parks a handle for a later CollectGarbage. Runs on the
// finalizer goroutine.
func (ctx *Context) enqueue(h Releasable) {
	ctx.mutex.Lock()
	ctx.orphaned = append(ctx.orphaned, h)
	pending := len(ctx.orphaned)
	ctx.mutex.Unlock()
	ctx.log.WithField("pending", pending).Debug("handle queued for deferred release")
}

// noteRelease logs an explicit release.
func (ctx *Context) noteRelease(kind string, id uint32) {
	ctx.log.WithFields(log.Fields{"kind": kind, "id": id}).Debug("resource released")
}

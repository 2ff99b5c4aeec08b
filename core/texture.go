package core

import (
	"fmt"
	"runtime"

	"github.com/devblok/vram/driver"
)

// Texture wraps a two dimensional texture, plain, depth or
// multisampled. Instances come from the Context texture factories.
// Unlike TextureArray it exposes its mipmap levels to reads and
// writes.
type Texture struct {
	ctx        *Context
	handle     driver.Texture
	width      int
	height     int
	components int
	dtype      DataType
	depth      bool
	samples    int

	// Extra is an open slot for the application, nothing in this
	// package reads or writes it.
	Extra any
}

var _ Resource = (*Texture)(nil)

// Size returns width and height.
func (t *Texture) Size() (int, int) {
	return t.width, t.height
}

// Width returns the width in pixels.
func (t *Texture) Width() int {
	return t.width
}

// Height returns the height in pixels.
func (t *Texture) Height() int {
	return t.height
}

// Components returns the component count of one pixel.
func (t *Texture) Components() int {
	return t.components
}

// DataType returns the scalar type of one component.
func (t *Texture) DataType() DataType {
	return t.dtype
}

// Depth reports whether this is a depth texture.
func (t *Texture) Depth() bool {
	return t.depth
}

// Samples returns the multisample count, zero for plain textures.
func (t *Texture) Samples() int {
	return t.samples
}

// ID returns the numeric name of the device object, zero once
// released.
func (t *Texture) ID() uint32 {
	defer runtime.KeepAlive(t)
	return t.driver().ID()
}

// Released reports whether the device object is gone.
func (t *Texture) Released() bool {
	_, ok := t.handle.(driver.Invalid)
	return ok
}

// RepeatX returns whether sampling wraps around horizontally.
func (t *Texture) RepeatX() bool {
	defer runtime.KeepAlive(t)
	return t.driver().RepeatX()
}

// SetRepeatX toggles horizontal wrap around.
func (t *Texture) SetRepeatX(v bool) error {
	defer runtime.KeepAlive(t)
	return t.driver().SetRepeatX(v)
}

// RepeatY returns whether sampling wraps around vertically.
func (t *Texture) RepeatY() bool {
	defer runtime.KeepAlive(t)
	return t.driver().RepeatY()
}

// SetRepeatY toggles vertical wrap around.
func (t *Texture) SetRepeatY(v bool) error {
	defer runtime.KeepAlive(t)
	return t.driver().SetRepeatY(v)
}

// Filter returns the minification and magnification filter pair.
func (t *Texture) Filter() Filter {
	defer runtime.KeepAlive(t)
	return t.driver().Filter()
}

// SetFilter changes the filter pair.
func (t *Texture) SetFilter(f Filter) error {
	defer runtime.KeepAlive(t)
	return t.driver().SetFilter(f)
}

// Swizzle returns the component routing mask. Depth textures have
// none.
func (t *Texture) Swizzle() string {
	defer runtime.KeepAlive(t)
	return t.driver().Swizzle()
}

// SetSwizzle changes the component routing mask, four characters over
// RGBA01 in either case.
func (t *Texture) SetSwizzle(mask string) error {
	defer runtime.KeepAlive(t)
	return t.driver().SetSwizzle(mask)
}

// Anisotropy returns the sampling anisotropy.
func (t *Texture) Anisotropy() float64 {
	defer runtime.KeepAlive(t)
	return t.driver().Anisotropy()
}

// SetAnisotropy changes the sampling anisotropy. The device clamps
// the value between one and its limit.
func (t *Texture) SetAnisotropy(v float64) error {
	defer runtime.KeepAlive(t)
	return t.driver().SetAnisotropy(v)
}

// CompareFunc returns the depth comparison function, empty when
// comparison is off.
func (t *Texture) CompareFunc() string {
	defer runtime.KeepAlive(t)
	return t.driver().CompareFunc()
}

// SetCompareFunc changes the depth comparison function. Accepts "<",
// "<=", ">", ">=", "==", "!=", "0", "1", or "" to switch comparison
// off. Only depth textures take one.
func (t *Texture) SetCompareFunc(fn string) error {
	defer runtime.KeepAlive(t)
	return t.driver().SetCompareFunc(fn)
}

// Read returns the pixels of one level, rows padded to alignment
// bytes.
func (t *Texture) Read(level, alignment int) ([]byte, error) {
	defer runtime.KeepAlive(t)
	p := make([]byte, t.byteLength(level, alignment))
	if err := t.driver().ReadPixels(p, level, alignment); err != nil {
		return nil, err
	}
	return p, nil
}

// ReadInto fills dst with the pixels of one level and returns how
// many bytes landed.
func (t *Texture) ReadInto(dst []byte, level, alignment int) (int, error) {
	defer runtime.KeepAlive(t)
	if err := t.driver().ReadPixels(dst, level, alignment); err != nil {
		return 0, err
	}
	return t.byteLength(level, alignment), nil
}

// ReadIntoBuffer lands the pixels of one level in a buffer at
// writeOffset without the data leaving the device.
func (t *Texture) ReadIntoBuffer(dst *Buffer, level, alignment, writeOffset int) error {
	defer runtime.KeepAlive(t)
	defer runtime.KeepAlive(dst)
	return t.driver().ReadPixelsInto(dst.driver(), level, alignment, writeOffset)
}

// Write stores pixel data into a region of one level, the whole level
// when region is nil. Rows in data are padded to alignment bytes.
func (t *Texture) Write(data []byte, region *Region, level, alignment int) error {
	defer runtime.KeepAlive(t)
	return t.driver().WritePixels(data, t.flatten(region), level, alignment)
}

// WriteFromBuffer is Write with the pixel data taken from a buffer on
// the same device.
func (t *Texture) WriteFromBuffer(src *Buffer, region *Region, level, alignment int) error {
	defer runtime.KeepAlive(t)
	defer runtime.KeepAlive(src)
	return t.driver().WritePixelsFrom(src.driver(), t.flatten(region), level, alignment)
}

// BuildMipmaps fills levels base+1 up to maxLevel from level base.
// Mind that it also resets the filter pair to
// (FilterLinearMipmapLinear, FilterLinear).
func (t *Texture) BuildMipmaps(base, maxLevel int) error {
	defer runtime.KeepAlive(t)
	return t.driver().BuildMipmaps(base, maxLevel)
}

// Use attaches the texture to a sampling unit.
func (t *Texture) Use(location int) error {
	defer runtime.KeepAlive(t)
	return t.driver().Use(location)
}

// BindToImage attaches one level to an image unit for shader side
// load and store access. At least one of read and write must be set.
// A format of zero keeps the texture's own format.
func (t *Texture) BindToImage(unit int, read, write bool, level, format int) error {
	defer runtime.KeepAlive(t)
	return t.driver().BindToImage(unit, read, write, level, format)
}

// Equal reports whether both wrappers stand for the same live device
// object. Use the wrapper pointer or ID as a map key, not this.
func (t *Texture) Equal(other *Texture) bool {
	if other == nil {
		return false
	}
	if t == other {
		return true
	}
	if t.handle == nil || t.Released() {
		return false
	}
	return t.handle == other.handle
}

func (t *Texture) String() string {
	switch {
	case t.handle == nil:
		return "<Texture: incomplete>"
	case t.Released():
		return "<Texture: released>"
	default:
		return fmt.Sprintf("<Texture: %d>", t.handle.ID())
	}
}

// Release frees the device object. Further calls do nothing, further
// operations fail at the driver boundary.
func (t *Texture) Release() {
	if t.handle == nil || t.Released() {
		return
	}
	id := t.handle.ID()
	t.handle.Release()
	t.handle = driver.Invalid{}
	runtime.SetFinalizer(t, nil)
	t.ctx.noteRelease("texture", id)
}

func (t *Texture) finalize() {
	if t.ctx == nil || t.Released() {
		return
	}
	switch t.ctx.GC() {
	case GCAuto:
		t.handle.Release()
	case GCContext:
		t.ctx.enqueue(t.handle)
	}
}

func (t *Texture) driver() driver.Texture {
	if t.handle == nil {
		return driver.Invalid{}
	}
	return t.handle
}

// flatten resolves the optional region of a two dimensional call into
// a single layer box.
func (t *Texture) flatten(region *Region) Region {
	if region == nil {
		return Region{}
	}
	reg := *region
	reg.Layer = 0
	if reg.Layers == 0 {
		reg.Layers = 1
	}
	return reg
}

// byteLength is the size of one level read at the given row
// alignment.
func (t *Texture) byteLength(level, alignment int) int {
	if level < 0 {
		return 0
	}
	if alignment < 1 {
		alignment = 1
	}
	w := t.width >> level
	h := t.height >> level
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	row := w * t.components * t.dtype.Size()
	if rem := row % alignment; rem != 0 {
		row += alignment - rem
	}
	return row * h
}

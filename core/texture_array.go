package core

import (
	"fmt"
	"runtime"

	"github.com/devblok/vram/driver"
)

// TextureArray wraps a stack of equally sized texture layers.
// Instances come from Context.NewTextureArray. Geometry is fixed at
// creation and keeps answering after release, sampling state lives on
// the device object and dies with it.
type TextureArray struct {
	ctx        *Context
	handle     driver.Texture
	width      int
	height     int
	layers     int
	components int
	dtype      DataType

	// Extra is an open slot for the application, nothing in this
	// package reads or writes it.
	Extra any
}

var _ Resource = (*TextureArray)(nil)

// Size returns width, height and layer count.
func (t *TextureArray) Size() (int, int, int) {
	return t.width, t.height, t.layers
}

// Width returns the width in pixels.
func (t *TextureArray) Width() int {
	return t.width
}

// Height returns the height in pixels.
func (t *TextureArray) Height() int {
	return t.height
}

// Layers returns the layer count.
func (t *TextureArray) Layers() int {
	return t.layers
}

// Components returns the component count of one pixel.
func (t *TextureArray) Components() int {
	return t.components
}

// DataType returns the scalar type of one component.
func (t *TextureArray) DataType() DataType {
	return t.dtype
}

// ID returns the numeric name of the device object, zero once
// released.
func (t *TextureArray) ID() uint32 {
	defer runtime.KeepAlive(t)
	return t.driver().ID()
}

// Released reports whether the device object is gone.
func (t *TextureArray) Released() bool {
	_, ok := t.handle.(driver.Invalid)
	return ok
}

// RepeatX returns whether sampling wraps around horizontally.
func (t *TextureArray) RepeatX() bool {
	defer runtime.KeepAlive(t)
	return t.driver().RepeatX()
}

// SetRepeatX toggles horizontal wrap around.
func (t *TextureArray) SetRepeatX(v bool) error {
	defer runtime.KeepAlive(t)
	return t.driver().SetRepeatX(v)
}

// RepeatY returns whether sampling wraps around vertically.
func (t *TextureArray) RepeatY() bool {
	defer runtime.KeepAlive(t)
	return t.driver().RepeatY()
}

// SetRepeatY toggles vertical wrap around.
func (t *TextureArray) SetRepeatY(v bool) error {
	defer runtime.KeepAlive(t)
	return t.driver().SetRepeatY(v)
}

// Filter returns the minification and magnification filter pair.
func (t *TextureArray) Filter() Filter {
	defer runtime.KeepAlive(t)
	return t.driver().Filter()
}

// SetFilter changes the filter pair.
func (t *TextureArray) SetFilter(f Filter) error {
	defer runtime.KeepAlive(t)
	return t.driver().SetFilter(f)
}

// Swizzle returns the component routing mask.
func (t *TextureArray) Swizzle() string {
	defer runtime.KeepAlive(t)
	return t.driver().Swizzle()
}

// SetSwizzle changes the component routing mask, four characters over
// RGBA01 in either case.
func (t *TextureArray) SetSwizzle(mask string) error {
	defer runtime.KeepAlive(t)
	return t.driver().SetSwizzle(mask)
}

// Anisotropy returns the sampling anisotropy.
func (t *TextureArray) Anisotropy() float64 {
	defer runtime.KeepAlive(t)
	return t.driver().Anisotropy()
}

// SetAnisotropy changes the sampling anisotropy. The device clamps
// the value between one and its limit.
func (t *TextureArray) SetAnisotropy(v float64) error {
	defer runtime.KeepAlive(t)
	return t.driver().SetAnisotropy(v)
}

// Read returns the pixels of the whole stack, rows padded to
// alignment bytes.
func (t *TextureArray) Read(alignment int) ([]byte, error) {
	defer runtime.KeepAlive(t)
	p := make([]byte, t.byteLength(alignment))
	if err := t.driver().ReadPixels(p, 0, alignment); err != nil {
		return nil, err
	}
	return p, nil
}

// ReadInto fills dst with the pixels of the whole stack and returns
// how many bytes landed.
func (t *TextureArray) ReadInto(dst []byte, alignment int) (int, error) {
	defer runtime.KeepAlive(t)
	if err := t.driver().ReadPixels(dst, 0, alignment); err != nil {
		return 0, err
	}
	return t.byteLength(alignment), nil
}

// ReadIntoBuffer lands the pixels of the whole stack in a buffer at
// writeOffset without the data leaving the device.
func (t *TextureArray) ReadIntoBuffer(dst *Buffer, alignment, writeOffset int) error {
	defer runtime.KeepAlive(t)
	defer runtime.KeepAlive(dst)
	return t.driver().ReadPixelsInto(dst.driver(), 0, alignment, writeOffset)
}

// Write stores pixel data into a region of the stack, the whole stack
// when region is nil. Rows in data are padded to alignment bytes.
func (t *TextureArray) Write(data []byte, region *Region, alignment int) error {
	defer runtime.KeepAlive(t)
	var reg Region
	if region != nil {
		reg = *region
	}
	return t.driver().WritePixels(data, reg, 0, alignment)
}

// WriteFromBuffer is Write with the pixel data taken from a buffer on
// the same device.
func (t *TextureArray) WriteFromBuffer(src *Buffer, region *Region, alignment int) error {
	defer runtime.KeepAlive(t)
	defer runtime.KeepAlive(src)
	var reg Region
	if region != nil {
		reg = *region
	}
	return t.driver().WritePixelsFrom(src.driver(), reg, 0, alignment)
}

// BuildMipmaps fills levels base+1 up to maxLevel from level base.
// Mind that it also resets the filter pair to
// (FilterLinearMipmapLinear, FilterLinear).
func (t *TextureArray) BuildMipmaps(base, maxLevel int) error {
	defer runtime.KeepAlive(t)
	return t.driver().BuildMipmaps(base, maxLevel)
}

// Use attaches the texture to a sampling unit.
func (t *TextureArray) Use(location int) error {
	defer runtime.KeepAlive(t)
	return t.driver().Use(location)
}

// BindToImage attaches one level to an image unit for shader side
// load and store access. At least one of read and write must be set.
// A format of zero keeps the texture's own format.
func (t *TextureArray) BindToImage(unit int, read, write bool, level, format int) error {
	defer runtime.KeepAlive(t)
	return t.driver().BindToImage(unit, read, write, level, format)
}

// Equal reports whether both wrappers stand for the same live device
// object. Use the wrapper pointer or ID as a map key, not this.
func (t *TextureArray) Equal(other *TextureArray) bool {
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

func (t *TextureArray) String() string {
	switch {
	case t.handle == nil:
		return "<TextureArray: incomplete>"
	case t.Released():
		return "<TextureArray: released>"
	default:
		return fmt.Sprintf("<TextureArray: %d>", t.handle.ID())
	}
}

// Release frees the device object. Further calls do nothing, further
// operations fail at the driver boundary.
func (t *TextureArray) Release() {
	if t.handle == nil || t.Released() {
		return
	}
	id := t.handle.ID()
	t.handle.Release()
	t.handle = driver.Invalid{}
	runtime.SetFinalizer(t, nil)
	t.ctx.noteRelease("texture_array", id)
}

func (t *TextureArray) finalize() {
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

func (t *TextureArray) driver() driver.Texture {
	if t.handle == nil {
		return driver.Invalid{}
	}
	return t.handle
}

// byteLength is the size of one full stack read at the given row
// alignment.
func (t *TextureArray) byteLength(alignment int) int {
	if alignment < 1 {
		alignment = 1
	}
	row := t.width * t.components * t.dtype.Size()
	if rem := row % alignment; rem != 0 {
		row += alignment - rem
	}
	return row * t.height * t.layers
}

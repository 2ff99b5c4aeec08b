package driver

import (
	"fmt"
	"image"
	"strings"
	"sync/atomic"

	"golang.org/x/image/draw"
)

var compareFuncs = map[string]bool{
	"": true, "<": true, "<=": true, ">": true, ">=": true,
	"==": true, "!=": true, "0": true, "1": true,
}

type softTexture struct {
	id         uint32
	dev        *SoftDevice
	width      int
	height     int
	layers     int
	components int
	dtype      DataType
	depth      bool
	samples    int
	array      bool
	released   atomic.Bool

	// levels[0] is always materialized, higher levels appear on
	// first touch or through BuildMipmaps
	levels [][]byte

	repeatX    bool
	repeatY    bool
	filter     Filter
	swizzle    string
	anisotropy float64
	compare    string
}

var _ Texture = (*softTexture)(nil)

func (t *softTexture) ID() uint32 {
	if t.released.Load() {
		return 0
	}
	return t.id
}

func (t *softTexture) ReadPixels(p []byte, level, alignment int) error {
	span, err := t.levelSpan(level, alignment)
	if err != nil {
		return err
	}
	if len(p) < span.padded {
		return fmt.Errorf("%w: destination is %d bytes, level takes %d", ErrDimensions, len(p), span.padded)
	}
	store := t.ensureLevel(level)
	for row := 0; row < span.rows; row++ {
		copy(p[row*span.paddedRow:], store[row*span.row:(row+1)*span.row])
	}
	return nil
}

func (t *softTexture) ReadPixelsInto(dst Buffer, level, alignment, writeOffset int) error {
	span, err := t.levelSpan(level, alignment)
	if err != nil {
		return err
	}
	target, err := t.dev.ownBuffer(dst)
	if err != nil {
		return err
	}
	if writeOffset < 0 || writeOffset+span.padded > len(target.data) {
		return fmt.Errorf("%w: %d bytes at %d into %d", ErrOutOfRange, span.padded, writeOffset, len(target.data))
	}
	store := t.ensureLevel(level)
	for row := 0; row < span.rows; row++ {
		copy(target.data[writeOffset+row*span.paddedRow:], store[row*span.row:(row+1)*span.row])
	}
	return nil
}

func (t *softTexture) WritePixels(p []byte, region Region, level, alignment int) error {
	box, err := t.resolveRegion(region, level, alignment)
	if err != nil {
		return err
	}
	if len(p) < box.total {
		return fmt.Errorf("%w: source is %d bytes, region takes %d", ErrDimensions, len(p), box.total)
	}
	t.copyRegion(p, box, level)
	return nil
}

func (t *softTexture) WritePixelsFrom(src Buffer, region Region, level, alignment int) error {
	box, err := t.resolveRegion(region, level, alignment)
	if err != nil {
		return err
	}
	source, err := t.dev.ownBuffer(src)
	if err != nil {
		return err
	}
	if len(source.data) < box.total {
		return fmt.Errorf("%w: source buffer is %d bytes, region takes %d", ErrDimensions, len(source.data), box.total)
	}
	t.copyRegion(source.data, box, level)
	return nil
}

// BuildMipmaps fills levels by halving the one below, layer by layer.
// Generation is only implemented for u8 component data.
func (t *softTexture) BuildMipmaps(base, maxLevel int) error {
	if t.released.Load() {
		return ErrReleased
	}
	if t.samples > 0 {
		return ErrMultisample
	}
	if base < 0 || base >= len(t.levels) {
		return fmt.Errorf("%w: base level %d of %d", ErrOutOfRange, base, len(t.levels))
	}
	if t.dtype != U8 {
		return fmt.Errorf("%w: mipmap generation needs u8 components, got %s", ErrDataType, t.dtype)
	}
	top := maxLevel
	if top > len(t.levels)-1 {
		top = len(t.levels) - 1
	}
	for level := base + 1; level <= top; level++ {
		t.downscale(level)
	}
	t.filter = Filter{Min: FilterLinearMipmapLinear, Mag: FilterLinear}
	return nil
}

func (t *softTexture) Use(location int) error {
	if t.released.Load() {
		return ErrReleased
	}
	return t.dev.bindUnit(location, t.id)
}

func (t *softTexture) BindToImage(unit int, read, write bool, level, format int) error {
	if t.released.Load() {
		return ErrReleased
	}
	if !read && !write {
		return ErrAccess
	}
	if level < 0 || level >= len(t.levels) {
		return fmt.Errorf("%w: level %d of %d", ErrOutOfRange, level, len(t.levels))
	}
	return t.dev.bindImage(unit, ImageBinding{
		Texture: t.id,
		Level:   level,
		Read:    read,
		Write:   write,
		Format:  format,
	})
}

func (t *softTexture) RepeatX() bool {
	return !t.released.Load() && t.repeatX
}

func (t *softTexture) SetRepeatX(v bool) error {
	if t.released.Load() {
		return ErrReleased
	}
	t.repeatX = v
	return nil
}

func (t *softTexture) RepeatY() bool {
	return !t.released.Load() && t.repeatY
}

func (t *softTexture) SetRepeatY(v bool) error {
	if t.released.Load() {
		return ErrReleased
	}
	t.repeatY = v
	return nil
}

func (t *softTexture) Filter() Filter {
	if t.released.Load() {
		return Filter{}
	}
	return t.filter
}

func (t *softTexture) SetFilter(f Filter) error {
	if t.released.Load() {
		return ErrReleased
	}
	if f.Min < FilterNearest || f.Min > FilterLinearMipmapLinear ||
		f.Mag < FilterNearest || f.Mag > FilterLinearMipmapLinear {
		return ErrFilter
	}
	t.filter = f
	return nil
}

func (t *softTexture) Swizzle() string {
	if t.released.Load() {
		return ""
	}
	return t.swizzle
}

func (t *softTexture) SetSwizzle(mask string) error {
	if t.released.Load() {
		return ErrReleased
	}
	if t.depth {
		return fmt.Errorf("%w: depth textures have no swizzle", ErrSwizzle)
	}
	if len(mask) != 4 {
		return fmt.Errorf("%w: %q", ErrSwizzle, mask)
	}
	upper := strings.ToUpper(mask)
	for _, c := range upper {
		switch c {
		case 'R', 'G', 'B', 'A', '0', '1':
		default:
			return fmt.Errorf("%w: %q", ErrSwizzle, mask)
		}
	}
	t.swizzle = upper
	return nil
}

func (t *softTexture) Anisotropy() float64 {
	if t.released.Load() {
		return 0
	}
	return t.anisotropy
}

func (t *softTexture) SetAnisotropy(v float64) error {
	if t.released.Load() {
		return ErrReleased
	}
	if v < 1.0 {
		v = 1.0
	}
	if limit := t.dev.cfg.MaxAnisotropy; v > limit {
		v = limit
	}
	t.anisotropy = v
	return nil
}

func (t *softTexture) CompareFunc() string {
	if t.released.Load() {
		return ""
	}
	return t.compare
}

func (t *softTexture) SetCompareFunc(fn string) error {
	if t.released.Load() {
		return ErrReleased
	}
	if !t.depth {
		return ErrNoDepth
	}
	if !compareFuncs[fn] {
		return fmt.Errorf("%w: %q", ErrCompareFunc, fn)
	}
	t.compare = fn
	return nil
}

func (t *softTexture) Release() {
	if t.released.Swap(true) {
		return
	}
	t.levels = nil
	t.dev.forgetTexture(t.id)
}

func (t *softTexture) levelDims(level int) (int, int) {
	w := t.width >> level
	h := t.height >> level
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

func (t *softTexture) ensureLevel(level int) []byte {
	if t.levels[level] == nil {
		w, h := t.levelDims(level)
		t.levels[level] = make([]byte, w*h*t.layers*t.components*t.dtype.Size())
	}
	return t.levels[level]
}

// levelSpan describes the byte layout of one full level for a given
// row alignment. rows counts rows across all layers.
type levelSpan struct {
	row       int
	paddedRow int
	rows      int
	padded    int
}

func (t *softTexture) levelSpan(level, alignment int) (levelSpan, error) {
	if t.released.Load() {
		return levelSpan{}, ErrReleased
	}
	if t.samples > 0 {
		return levelSpan{}, ErrMultisample
	}
	if !validAlignment(alignment) {
		return levelSpan{}, ErrAlignment
	}
	if level < 0 || level >= len(t.levels) {
		return levelSpan{}, fmt.Errorf("%w: level %d of %d", ErrOutOfRange, level, len(t.levels))
	}
	w, h := t.levelDims(level)
	row := w * t.components * t.dtype.Size()
	paddedRow := alignUp(row, alignment)
	rows := h * t.layers
	return levelSpan{
		row:       row,
		paddedRow: paddedRow,
		rows:      rows,
		padded:    paddedRow * rows,
	}, nil
}

// regionSpan describes the byte layout of a region write.
type regionSpan struct {
	box       Region
	row       int
	paddedRow int
	total     int
}

func (t *softTexture) resolveRegion(region Region, level, alignment int) (regionSpan, error) {
	if t.released.Load() {
		return regionSpan{}, ErrReleased
	}
	if t.samples > 0 {
		return regionSpan{}, ErrMultisample
	}
	if !validAlignment(alignment) {
		return regionSpan{}, ErrAlignment
	}
	if level < 0 || level >= len(t.levels) {
		return regionSpan{}, fmt.Errorf("%w: level %d of %d", ErrOutOfRange, level, len(t.levels))
	}
	w, h := t.levelDims(level)
	if region == (Region{}) {
		region = Region{Width: w, Height: h, Layers: t.layers}
	}
	if region.Width < 1 || region.Height < 1 || region.Layers < 1 ||
		region.X < 0 || region.Y < 0 || region.Layer < 0 ||
		region.X+region.Width > w || region.Y+region.Height > h ||
		region.Layer+region.Layers > t.layers {
		return regionSpan{}, fmt.Errorf("%w: %+v against %dx%dx%d", ErrRegion, region, w, h, t.layers)
	}
	row := region.Width * t.components * t.dtype.Size()
	paddedRow := alignUp(row, alignment)
	return regionSpan{
		box:       region,
		row:       row,
		paddedRow: paddedRow,
		total:     paddedRow * region.Height * region.Layers,
	}, nil
}

func (t *softTexture) copyRegion(src []byte, span regionSpan, level int) {
	store := t.ensureLevel(level)
	w, h := t.levelDims(level)
	pixel := t.components * t.dtype.Size()
	stride := w * pixel
	box := span.box
	for layer := 0; layer < box.Layers; layer++ {
		for y := 0; y < box.Height; y++ {
			from := (layer*box.Height + y) * span.paddedRow
			to := ((box.Layer+layer)*h+box.Y+y)*stride + box.X*pixel
			copy(store[to:to+span.row], src[from:from+span.row])
		}
	}
}

// downscale fills a level by scaling the level above it with a
// bilinear kernel, one layer at a time.
func (t *softTexture) downscale(level int) {
	srcW, srcH := t.levelDims(level - 1)
	dstW, dstH := t.levelDims(level)
	src := t.ensureLevel(level - 1)
	dst := t.ensureLevel(level)
	srcLayer := srcW * srcH * t.components
	dstLayer := dstW * dstH * t.components
	for layer := 0; layer < t.layers; layer++ {
		scaleLayer(
			src[layer*srcLayer:(layer+1)*srcLayer], srcW, srcH,
			dst[layer*dstLayer:(layer+1)*dstLayer], dstW, dstH,
			t.components,
		)
	}
}

// scaleLayer spreads the components over RGBA channels, scales with
// the draw kernel and folds the result back. Channels interpolate
// independently under draw.Src, so the round trip is exact.
func scaleLayer(src []byte, srcW, srcH int, dst []byte, dstW, dstH, components int) {
	from := image.NewRGBA(image.Rect(0, 0, srcW, srcH))
	for i := 0; i < srcW*srcH; i++ {
		for c := 0; c < components; c++ {
			from.Pix[i*4+c] = src[i*components+c]
		}
		if components < 4 {
			from.Pix[i*4+3] = 0xff
		}
	}
	to := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	draw.ApproxBiLinear.Scale(to, to.Bounds(), from, from.Bounds(), draw.Src, nil)
	for i := 0; i < dstW*dstH; i++ {
		for c := 0; c < components; c++ {
			dst[i*components+c] = to.Pix[i*4+c]
		}
	}
}

package driver

// Invalid is the handle a wrapper keeps after its object is released.
// It satisfies both Buffer and Texture, reports a zero ID, returns
// ErrReleased from every operation that moves data or changes state
// and absorbs further Release calls. Swapping a live handle for
// Invalid is what makes release idempotent one layer up.
type Invalid struct{}

var (
	_ Buffer  = Invalid{}
	_ Texture = Invalid{}
)

// ID reports zero, no live object ever has it.
func (Invalid) ID() uint32 { return 0 }

// Size reports zero.
func (Invalid) Size() int { return 0 }

// Release does nothing.
func (Invalid) Release() {}

func (Invalid) Write(p []byte, offset int) error { return ErrReleased }

func (Invalid) WriteChunks(p []byte, start, step, count int) error { return ErrReleased }

func (Invalid) Read(p []byte, offset int) error { return ErrReleased }

func (Invalid) ReadInto(dst Buffer, size, offset, writeOffset int) error { return ErrReleased }

func (Invalid) ReadChunks(p []byte, chunkSize, start, step, count int) error { return ErrReleased }

func (Invalid) ReadChunksInto(dst Buffer, chunkSize, start, step, count, writeOffset int) error {
	return ErrReleased
}

func (Invalid) Clear(size, offset int, chunk []byte) error { return ErrReleased }

func (Invalid) BindRange(target BlockTarget, binding, offset, size int) error { return ErrReleased }

func (Invalid) Orphan(size int) error { return ErrReleased }

func (Invalid) ReadPixels(p []byte, level, alignment int) error { return ErrReleased }

func (Invalid) ReadPixelsInto(dst Buffer, level, alignment, writeOffset int) error {
	return ErrReleased
}

func (Invalid) WritePixels(p []byte, region Region, level, alignment int) error { return ErrReleased }

func (Invalid) WritePixelsFrom(src Buffer, region Region, level, alignment int) error {
	return ErrReleased
}

func (Invalid) BuildMipmaps(base, maxLevel int) error { return ErrReleased }

func (Invalid) Use(location int) error { return ErrReleased }

func (Invalid) BindToImage(unit int, read, write bool, level, format int) error { return ErrReleased }

func (Invalid) RepeatX() bool { return false }

func (Invalid) SetRepeatX(v bool) error { return ErrReleased }

func (Invalid) RepeatY() bool { return false }

func (Invalid) SetRepeatY(v bool) error { return ErrReleased }

func (Invalid) Filter() Filter { return Filter{} }

func (Invalid) SetFilter(f Filter) error { return ErrReleased }

func (Invalid) Swizzle() string { return "" }

func (Invalid) SetSwizzle(mask string) error { return ErrReleased }

func (Invalid) Anisotropy() float64 { return 0 }

func (Invalid) SetAnisotropy(v float64) error { return ErrReleased }

func (Invalid) CompareFunc() string { return "" }

func (Invalid) SetCompareFunc(fn string) error { return ErrReleased }

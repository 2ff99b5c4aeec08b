// Package driver specifies the contract between the resource layer
// and a graphics backend. The resource layer in core only shapes
// arguments and owns object lifetimes, every byte that moves and every
// argument that gets validated does so behind these interfaces. The
// package also ships a software device that implements the whole
// contract in host memory, so the resource layer can run and be tested
// without a GPU present.
package driver

import (
	"errors"
	"fmt"
)

// package errors
var (
	ErrReleased    = errors.New("driver: object already released")
	ErrOutOfRange  = errors.New("driver: byte range out of bounds")
	ErrChunkLayout = errors.New("driver: chunk layout does not fit")
	ErrRegion      = errors.New("driver: region outside texture bounds")
	ErrAccess      = errors.New("driver: image binding needs read or write access")
	ErrSwizzle     = errors.New("driver: malformed swizzle mask")
	ErrCompareFunc = errors.New("driver: unknown compare function")
	ErrNoDepth     = errors.New("driver: compare function requires a depth texture")
	ErrMultisample = errors.New("driver: multisample texture has no direct pixel access")
	ErrDimensions  = errors.New("driver: invalid object dimensions")
	ErrDataType    = errors.New("driver: operation unavailable for this data type")
	ErrAlignment   = errors.New("driver: alignment must be 1, 2, 4 or 8")
	ErrFilter      = errors.New("driver: unknown filter mode")
	ErrForeign     = errors.New("driver: handle belongs to another device")
)

// DataType identifies the scalar type of a single texture component.
type DataType int

// Supported component scalar types
const (
	U8 DataType = iota
	U16
	U32
	I8
	I16
	I32
	F16
	F32
)

// Size returns the width of one scalar in bytes.
func (d DataType) Size() int {
	switch d {
	case U8, I8:
		return 1
	case U16, I16, F16:
		return 2
	default:
		return 4
	}
}

func (d DataType) String() string {
	switch d {
	case U8:
		return "u8"
	case U16:
		return "u16"
	case U32:
		return "u32"
	case I8:
		return "i8"
	case I16:
		return "i16"
	case I32:
		return "i32"
	case F16:
		return "f16"
	case F32:
		return "f32"
	default:
		return "unknown"
	}
}

func (d DataType) valid() bool {
	return d >= U8 && d <= F32
}

// ParseDataType maps a scalar type name like "u8" or "f32" back to
// its DataType.
func ParseDataType(s string) (DataType, error) {
	for d := U8; d <= F32; d++ {
		if s == d.String() {
			return d, nil
		}
	}
	return 0, fmt.Errorf("driver.ParseDataType(): unknown data type %q", s)
}

// FilterMode selects how a texture is sampled when scaled.
type FilterMode int

// Sampling filter modes
const (
	FilterNearest FilterMode = iota
	FilterLinear
	FilterNearestMipmapNearest
	FilterLinearMipmapNearest
	FilterNearestMipmapLinear
	FilterLinearMipmapLinear
)

func (f FilterMode) String() string {
	switch f {
	case FilterNearest:
		return "nearest"
	case FilterLinear:
		return "linear"
	case FilterNearestMipmapNearest:
		return "nearest_mipmap_nearest"
	case FilterLinearMipmapNearest:
		return "linear_mipmap_nearest"
	case FilterNearestMipmapLinear:
		return "nearest_mipmap_linear"
	case FilterLinearMipmapLinear:
		return "linear_mipmap_linear"
	default:
		return "unknown"
	}
}

// Filter is the minification and magnification filter pair of a texture.
type Filter struct {
	Min FilterMode
	Mag FilterMode
}

// Region selects a box inside a texture. A zero X, Y and Layer with
// Width, Height and Layers set addresses the front of the stack, all
// six fields set address an arbitrary box. Layer and Layers are zero
// and one for two dimensional textures.
type Region struct {
	X, Y, Layer           int
	Width, Height, Layers int
}

// BlockTarget names the shader visible slot kind a buffer range
// can be attached to.
type BlockTarget int

// Buffer attachment targets
const (
	TargetUniformBlock BlockTarget = iota
	TargetStorageBuffer
)

func (t BlockTarget) String() string {
	switch t {
	case TargetUniformBlock:
		return "uniform_block"
	case TargetStorageBuffer:
		return "storage_buffer"
	default:
		return "unknown"
	}
}

// DeviceInfo describes the capabilities of an open device.
type DeviceInfo struct {
	Name               string
	Vendor             string
	MaxAnisotropy      float64
	MaxTextureSize     int
	MaxArrayLayers     int
	MaxUniformBindings int
	MaxStorageBindings int
	MaxTextureUnits    int
	MaxImageUnits      int
}

// Device is an open connection to a backend. It creates raw resource
// handles and reports device limits. Implementations validate every
// argument and fail synchronously, callers above this interface do not
// validate again.
type Device interface {
	// NewBuffer creates a buffer either from initial contents or,
	// when data is nil, empty at reserve bytes. Exactly one of the
	// two must be given. The dynamic flag is a usage hint.
	NewBuffer(data []byte, reserve int, dynamic bool) (Buffer, error)

	// NewTexture2D creates a two dimensional texture. A depth texture
	// has one component and supports a compare function. A samples
	// value above zero makes the texture multisampled, which forbids
	// initial data and direct pixel access.
	NewTexture2D(width, height, components int, dt DataType, depth bool, samples int, data []byte) (Texture, error)

	// NewTextureArray creates a stack of layers equally sized textures.
	NewTextureArray(width, height, layers, components int, dt DataType, data []byte) (Texture, error)

	// MaxAnisotropy reports the anisotropic filtering limit.
	MaxAnisotropy() float64

	// Info reports device capabilities.
	Info() DeviceInfo

	// Release frees the device and every object still alive on it.
	Release()
}

// Buffer is a raw linear memory object on a device.
type Buffer interface {
	// ID returns the numeric name of the object, zero only on
	// released handles.
	ID() uint32

	// Size returns the current allocation size in bytes.
	Size() int

	// Write stores p at offset.
	Write(p []byte, offset int) error

	// WriteChunks splits p into count equal chunks and stores chunk i
	// at start plus i times step.
	WriteChunks(p []byte, start, step, count int) error

	// Read fills p with len(p) bytes starting at offset.
	Read(p []byte, offset int) error

	// ReadInto copies size bytes at offset into another buffer at
	// writeOffset without leaving the device. A size of -1 means
	// everything from offset to the end.
	ReadInto(dst Buffer, size, offset, writeOffset int) error

	// ReadChunks gathers count chunks of chunkSize bytes, chunk i
	// taken at start plus i times step, into p.
	ReadChunks(p []byte, chunkSize, start, step, count int) error

	// ReadChunksInto gathers like ReadChunks but lands the chunks in
	// another buffer at writeOffset.
	ReadChunksInto(dst Buffer, chunkSize, start, step, count, writeOffset int) error

	// Clear fills size bytes at offset with the chunk pattern, or
	// with zeroes when chunk is nil. A size of -1 means everything
	// from offset to the end.
	Clear(size, offset int, chunk []byte) error

	// BindRange attaches offset to offset+size to a shader visible
	// binding slot. A size of -1 means everything from offset on.
	BindRange(target BlockTarget, binding, offset, size int) error

	// Orphan reallocates the data store, invalidating contents. A
	// size of -1 keeps the current size.
	Orphan(size int) error

	// Release frees the object. Safe to call more than once.
	Release()
}

// Texture is a raw image object on a device, two dimensional or an
// array of layers. Sampling state lives here, not on the wrappers
// above.
type Texture interface {
	// ID returns the numeric name of the object, zero only on
	// released handles.
	ID() uint32

	// ReadPixels fills p with the pixels of one level, rows padded
	// to alignment bytes.
	ReadPixels(p []byte, level, alignment int) error

	// ReadPixelsInto lands the pixels of one level in a buffer at
	// writeOffset.
	ReadPixelsInto(dst Buffer, level, alignment, writeOffset int) error

	// WritePixels stores pixel data into a region of one level.
	// Rows in p are padded to alignment bytes.
	WritePixels(p []byte, region Region, level, alignment int) error

	// WritePixelsFrom is WritePixels with the data taken from a
	// buffer on the same device.
	WritePixelsFrom(src Buffer, region Region, level, alignment int) error

	// BuildMipmaps fills levels base+1 up to maxLevel from level
	// base. It also resets the filter pair to
	// (FilterLinearMipmapLinear, FilterLinear).
	BuildMipmaps(base, maxLevel int) error

	// Use attaches the texture to a sampling unit.
	Use(location int) error

	// BindToImage attaches one level to an image unit for shader
	// side load and store access. At least one of read and write
	// must be set. A format of zero keeps the texture's own format.
	BindToImage(unit int, read, write bool, level, format int) error

	RepeatX() bool
	SetRepeatX(v bool) error
	RepeatY() bool
	SetRepeatY(v bool) error

	Filter() Filter
	SetFilter(f Filter) error

	// Swizzle returns the component routing mask, four characters
	// over RGBA01.
	Swizzle() string
	SetSwizzle(mask string) error

	// Anisotropy returns the sampling anisotropy. Setting clamps the
	// value into the closed range from one to the device limit.
	Anisotropy() float64
	SetAnisotropy(v float64) error

	// CompareFunc returns the depth comparison function, empty when
	// comparison is off. Only depth textures accept one.
	CompareFunc() string
	SetCompareFunc(fn string) error

	// Release frees the object. Safe to call more than once.
	Release()
}

package driver

import (
	"fmt"
	"sync"
)

// Soft device default limits
const (
	DefaultMaxAnisotropy      = 16.0
	DefaultMaxTextureSize     = 16384
	DefaultMaxArrayLayers     = 2048
	DefaultMaxUniformBindings = 84
	DefaultMaxStorageBindings = 16
	DefaultMaxTextureUnits    = 32
	DefaultMaxImageUnits      = 16
)

// SoftConfiguration is used to configure the software device.
// Zero fields fall back to the package defaults.
type SoftConfiguration struct {
	MaxAnisotropy      float64
	MaxTextureSize     int
	MaxArrayLayers     int
	MaxUniformBindings int
	MaxStorageBindings int
	MaxTextureUnits    int
	MaxImageUnits      int
}

// NewSoftDevice creates a device that keeps every object in host
// memory. It implements the full Device contract, byte for byte, and
// is what the tests and the headless tools run against.
func NewSoftDevice(cfg SoftConfiguration) *SoftDevice {
	if cfg.MaxAnisotropy <= 0 {
		cfg.MaxAnisotropy = DefaultMaxAnisotropy
	}
	if cfg.MaxTextureSize <= 0 {
		cfg.MaxTextureSize = DefaultMaxTextureSize
	}
	if cfg.MaxArrayLayers <= 0 {
		cfg.MaxArrayLayers = DefaultMaxArrayLayers
	}
	if cfg.MaxUniformBindings <= 0 {
		cfg.MaxUniformBindings = DefaultMaxUniformBindings
	}
	if cfg.MaxStorageBindings <= 0 {
		cfg.MaxStorageBindings = DefaultMaxStorageBindings
	}
	if cfg.MaxTextureUnits <= 0 {
		cfg.MaxTextureUnits = DefaultMaxTextureUnits
	}
	if cfg.MaxImageUnits <= 0 {
		cfg.MaxImageUnits = DefaultMaxImageUnits
	}
	return &SoftDevice{
		cfg:      cfg,
		nextID:   1,
		buffers:  make(map[uint32]*softBuffer),
		textures: make(map[uint32]*softTexture),
		uniform:  make(map[int]RangeBinding),
		storage:  make(map[int]RangeBinding),
		units:    make(map[int]uint32),
		images:   make(map[int]ImageBinding),
	}
}

// RangeBinding records a buffer range attached to a binding slot.
type RangeBinding struct {
	Buffer uint32
	Offset int
	Size   int
}

// ImageBinding records a texture level attached to an image unit.
type ImageBinding struct {
	Texture uint32
	Level   int
	Read    bool
	Write   bool
	Format  int
}

// SoftDevice is the host memory Device implementation. Object
// creation and release are safe to call from any goroutine, the data
// moving operations on individual handles are not.
type SoftDevice struct {
	cfg    SoftConfiguration
	mutex  sync.Mutex
	nextID uint32

	buffers  map[uint32]*softBuffer
	textures map[uint32]*softTexture

	uniform map[int]RangeBinding
	storage map[int]RangeBinding
	units   map[int]uint32
	images  map[int]ImageBinding
}

// NewBuffer creates a buffer from initial contents, or empty at
// reserve bytes when data is nil.
func (sd *SoftDevice) NewBuffer(data []byte, reserve int, dynamic bool) (Buffer, error) {
	if data == nil && reserve <= 0 {
		return nil, fmt.Errorf("%w: buffer needs data or a reserve size", ErrDimensions)
	}
	if data != nil && len(data) == 0 {
		return nil, fmt.Errorf("%w: buffer cannot be empty", ErrDimensions)
	}
	if data != nil && reserve != 0 {
		return nil, fmt.Errorf("%w: data and reserve are exclusive", ErrDimensions)
	}
	store := make([]byte, reserve)
	if data != nil {
		store = make([]byte, len(data))
		copy(store, data)
	}
	buf := &softBuffer{
		id:      sd.allocID(),
		dev:     sd,
		data:    store,
		dynamic: dynamic,
	}
	sd.mutex.Lock()
	sd.buffers[buf.id] = buf
	sd.mutex.Unlock()
	return buf, nil
}

// NewTexture2D creates a two dimensional texture.
func (sd *SoftDevice) NewTexture2D(width, height, components int, dt DataType, depth bool, samples int, data []byte) (Texture, error) {
	if depth {
		if components != 1 {
			return nil, fmt.Errorf("%w: depth textures have one component", ErrDimensions)
		}
		if dt != F16 && dt != F32 {
			return nil, fmt.Errorf("%w: depth textures need a float data type", ErrDataType)
		}
	}
	switch samples {
	case 0, 2, 4, 8, 16:
	default:
		return nil, fmt.Errorf("%w: samples must be zero or a power of two up to 16", ErrDimensions)
	}
	if samples > 0 && data != nil {
		return nil, fmt.Errorf("%w: cannot be created with initial data", ErrMultisample)
	}
	return sd.newTexture(width, height, 1, components, dt, depth, samples, false, data)
}

// NewTextureArray creates a stack of layers equally sized textures.
func (sd *SoftDevice) NewTextureArray(width, height, layers, components int, dt DataType, data []byte) (Texture, error) {
	if layers < 1 || layers > sd.cfg.MaxArrayLayers {
		return nil, fmt.Errorf("%w: layer count %d", ErrDimensions, layers)
	}
	return sd.newTexture(width, height, layers, components, dt, false, 0, true, data)
}

func (sd *SoftDevice) newTexture(width, height, layers, components int, dt DataType, depth bool, samples int, array bool, data []byte) (Texture, error) {
	if width < 1 || height < 1 || width > sd.cfg.MaxTextureSize || height > sd.cfg.MaxTextureSize {
		return nil, fmt.Errorf("%w: %dx%d", ErrDimensions, width, height)
	}
	if components < 1 || components > 4 {
		return nil, fmt.Errorf("%w: component count %d", ErrDimensions, components)
	}
	if !dt.valid() {
		return nil, fmt.Errorf("%w: data type %d", ErrDataType, int(dt))
	}
	base := width * height * layers * components * dt.Size()
	if data != nil && len(data) != base {
		return nil, fmt.Errorf("%w: initial data is %d bytes, texture takes %d", ErrDimensions, len(data), base)
	}
	compare := ""
	if depth {
		compare = "<="
	}
	tex := &softTexture{
		id:         sd.allocID(),
		dev:        sd,
		width:      width,
		height:     height,
		layers:     layers,
		components: components,
		dtype:      dt,
		depth:      depth,
		samples:    samples,
		array:      array,
		levels:     make([][]byte, maxLevels(width, height)),
		repeatX:    true,
		repeatY:    true,
		filter:     Filter{Min: FilterLinear, Mag: FilterLinear},
		swizzle:    "RGBA",
		anisotropy: 1.0,
		compare:    compare,
	}
	tex.levels[0] = make([]byte, base)
	if data != nil {
		copy(tex.levels[0], data)
	}
	sd.mutex.Lock()
	sd.textures[tex.id] = tex
	sd.mutex.Unlock()
	return tex, nil
}

// MaxAnisotropy reports the anisotropic filtering limit.
func (sd *SoftDevice) MaxAnisotropy() float64 {
	return sd.cfg.MaxAnisotropy
}

// Info reports device capabilities.
func (sd *SoftDevice) Info() DeviceInfo {
	return DeviceInfo{
		Name:               "vram software device",
		Vendor:             "devblok",
		MaxAnisotropy:      sd.cfg.MaxAnisotropy,
		MaxTextureSize:     sd.cfg.MaxTextureSize,
		MaxArrayLayers:     sd.cfg.MaxArrayLayers,
		MaxUniformBindings: sd.cfg.MaxUniformBindings,
		MaxStorageBindings: sd.cfg.MaxStorageBindings,
		MaxTextureUnits:    sd.cfg.MaxTextureUnits,
		MaxImageUnits:      sd.cfg.MaxImageUnits,
	}
}

// Release frees every object still alive on the device.
func (sd *SoftDevice) Release() {
	sd.mutex.Lock()
	buffers := make([]*softBuffer, 0, len(sd.buffers))
	for _, b := range sd.buffers {
		buffers = append(buffers, b)
	}
	textures := make([]*softTexture, 0, len(sd.textures))
	for _, t := range sd.textures {
		textures = append(textures, t)
	}
	sd.mutex.Unlock()
	for _, b := range buffers {
		b.Release()
	}
	for _, t := range textures {
		t.Release()
	}
	sd.mutex.Lock()
	sd.uniform = make(map[int]RangeBinding)
	sd.storage = make(map[int]RangeBinding)
	sd.units = make(map[int]uint32)
	sd.images = make(map[int]ImageBinding)
	sd.mutex.Unlock()
}

// LiveObjects returns how many objects have been created and not yet
// released.
func (sd *SoftDevice) LiveObjects() int {
	sd.mutex.Lock()
	defer sd.mutex.Unlock()
	return len(sd.buffers) + len(sd.textures)
}

// TextureAt returns the ID of the texture attached to a sampling
// unit, zero when the unit is empty.
func (sd *SoftDevice) TextureAt(unit int) uint32 {
	sd.mutex.Lock()
	defer sd.mutex.Unlock()
	return sd.units[unit]
}

// ImageBindingAt returns the image unit attachment, if any.
func (sd *SoftDevice) ImageBindingAt(unit int) (ImageBinding, bool) {
	sd.mutex.Lock()
	defer sd.mutex.Unlock()
	ib, ok := sd.images[unit]
	return ib, ok
}

// RangeBindingAt returns the buffer range attached to a binding slot
// of the given target, if any.
func (sd *SoftDevice) RangeBindingAt(target BlockTarget, binding int) (RangeBinding, bool) {
	sd.mutex.Lock()
	defer sd.mutex.Unlock()
	var rb RangeBinding
	var ok bool
	switch target {
	case TargetUniformBlock:
		rb, ok = sd.uniform[binding]
	case TargetStorageBuffer:
		rb, ok = sd.storage[binding]
	}
	return rb, ok
}

// ownBuffer checks that a handle is a live buffer of this device.
func (sd *SoftDevice) ownBuffer(h Buffer) (*softBuffer, error) {
	target, ok := h.(*softBuffer)
	if !ok || target.dev != sd {
		return nil, ErrForeign
	}
	if target.released.Load() {
		return nil, ErrReleased
	}
	return target, nil
}

func (sd *SoftDevice) allocID() uint32 {
	sd.mutex.Lock()
	defer sd.mutex.Unlock()
	id := sd.nextID
	sd.nextID++
	return id
}

func (sd *SoftDevice) forgetBuffer(id uint32) {
	sd.mutex.Lock()
	defer sd.mutex.Unlock()
	delete(sd.buffers, id)
}

func (sd *SoftDevice) forgetTexture(id uint32) {
	sd.mutex.Lock()
	defer sd.mutex.Unlock()
	delete(sd.textures, id)
}

func (sd *SoftDevice) bindRange(target BlockTarget, binding int, rb RangeBinding) error {
	sd.mutex.Lock()
	defer sd.mutex.Unlock()
	switch target {
	case TargetUniformBlock:
		if binding < 0 || binding >= sd.cfg.MaxUniformBindings {
			return fmt.Errorf("%w: uniform binding %d", ErrOutOfRange, binding)
		}
		sd.uniform[binding] = rb
	case TargetStorageBuffer:
		if binding < 0 || binding >= sd.cfg.MaxStorageBindings {
			return fmt.Errorf("%w: storage binding %d", ErrOutOfRange, binding)
		}
		sd.storage[binding] = rb
	default:
		return fmt.Errorf("%w: unknown binding target %d", ErrOutOfRange, int(target))
	}
	return nil
}

func (sd *SoftDevice) bindUnit(unit int, id uint32) error {
	sd.mutex.Lock()
	defer sd.mutex.Unlock()
	if unit < 0 || unit >= sd.cfg.MaxTextureUnits {
		return fmt.Errorf("%w: texture unit %d", ErrOutOfRange, unit)
	}
	sd.units[unit] = id
	return nil
}

func (sd *SoftDevice) bindImage(unit int, ib ImageBinding) error {
	sd.mutex.Lock()
	defer sd.mutex.Unlock()
	if unit < 0 || unit >= sd.cfg.MaxImageUnits {
		return fmt.Errorf("%w: image unit %d", ErrOutOfRange, unit)
	}
	sd.images[unit] = ib
	return nil
}

// resolveSpan turns a size argument that may be -1 into a concrete
// byte count and bounds checks the span against the total.
func resolveSpan(size, offset, total int) (int, error) {
	if offset < 0 || offset > total {
		return 0, fmt.Errorf("%w: offset %d of %d", ErrOutOfRange, offset, total)
	}
	if size == -1 {
		return total - offset, nil
	}
	if size < 0 || offset+size > total {
		return 0, fmt.Errorf("%w: %d bytes at %d of %d", ErrOutOfRange, size, offset, total)
	}
	return size, nil
}

func alignUp(n, alignment int) int {
	if rem := n % alignment; rem != 0 {
		return n + alignment - rem
	}
	return n
}

func validAlignment(alignment int) bool {
	switch alignment {
	case 1, 2, 4, 8:
		return true
	}
	return false
}

func maxLevels(width, height int) int {
	levels := 1
	for m := max(width, height); m > 1; m >>= 1 {
		levels++
	}
	return levels
}

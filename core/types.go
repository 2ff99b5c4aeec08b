package core

import (
	"github.com/devblok/vram/driver"
)

// Driver vocabulary used in wrapper signatures, re-exported so callers
// of this package rarely need to import the driver directly.
type (
	DataType   = driver.DataType
	Filter     = driver.Filter
	FilterMode = driver.FilterMode
	Region     = driver.Region
)

// Component scalar types
const (
	U8  = driver.U8
	U16 = driver.U16
	U32 = driver.U32
	I8  = driver.I8
	I16 = driver.I16
	I32 = driver.I32
	F16 = driver.F16
	F32 = driver.F32
)

// Sampling filter modes
const (
	FilterNearest              = driver.FilterNearest
	FilterLinear               = driver.FilterLinear
	FilterNearestMipmapNearest = driver.FilterNearestMipmapNearest
	FilterLinearMipmapNearest  = driver.FilterLinearMipmapNearest
	FilterNearestMipmapLinear  = driver.FilterNearestMipmapLinear
	FilterLinearMipmapLinear   = driver.FilterLinearMipmapLinear
)

// Binding ties a buffer to named vertex attributes with an optional
// layout string. It moves no data, vertex array assembly elsewhere
// consumes it.
type Binding struct {
	Buffer     *Buffer
	Layout     string
	Attributes []string
}

// Slot ties a buffer to a numbered attribute index. Like Binding it
// only shapes data for a consumer outside this package.
type Slot struct {
	Buffer *Buffer
	Index  int
}

package model

import (
	"fmt"
	"unsafe"

	glm "github.com/go-gl/mathgl/mgl32"

	"github.com/devblok/vram/core"
)

// Object represents the engine supported model
type Object interface {

	// SetPosition sets the object's current position in space.
	// Has to be thread-safe
	SetPosition(glm.Mat4)

	// Position gets the object's current position in space.
	// Has to be thread-safe
	Position() glm.Mat4

	// SetRotation sets the object's rotation matrix.
	// Has to be thread-safe
	SetRotation(glm.Mat4)

	// Rotation gets the object's rotation matrix.
	// Has to be thread-safe
	Rotation() glm.Mat4

	// Vertices returns the vertices for upload,
	// so it has to match the declared layout exactly
	Vertices() []Vertex
}

// Vertex is a model vertex
type Vertex struct {
	Pos   glm.Vec3
	Color glm.Vec4
}

// Uniform defines a model-view-projection object
type Uniform struct {
	Model      glm.Mat4
	View       glm.Mat4
	Projection glm.Mat4
}

// VertexLayout describes how a packed []Vertex maps onto shader
// attributes.
const VertexLayout = "3f 4f"

// VertexAttributes names the shader inputs the layout binds to,
// in declaration order.
func VertexAttributes() []string {
	return []string{"in_pos", "in_color"}
}

// Stride is the packed size of a single vertex in bytes.
func Stride() int {
	return int(unsafe.Sizeof(Vertex{}))
}

// Bytes reslices vertices into the byte form buffer uploads take.
// The returned slice aliases verts, it holds no copy.
func Bytes(verts []Vertex) []byte {
	if len(verts) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&verts[0])), len(verts)*Stride())
}

// UniformBytes reslices a uniform block into its upload form.
// The returned slice aliases u.
func UniformBytes(u *Uniform) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(u)), int(unsafe.Sizeof(Uniform{})))
}

// Upload packs the object's vertices into a fresh device buffer.
func Upload(ctx *core.Context, obj Object) (*core.Buffer, error) {
	buf, err := ctx.NewBuffer(Bytes(obj.Vertices()), false)
	if err != nil {
		return nil, fmt.Errorf("model.Upload(): %w", err)
	}
	return buf, nil
}

// VertexBinding describes buf in the layout vertex assembly consumes.
func VertexBinding(buf *core.Buffer) core.Binding {
	return buf.Bind(VertexLayout, VertexAttributes()...)
}

// UniformSlot assigns buf to the uniform block index reserved for
// model-view-projection data.
func UniformSlot(buf *core.Buffer) core.Slot {
	return buf.Assign(0)
}

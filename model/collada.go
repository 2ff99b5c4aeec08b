package model

import (
	"encoding/xml"
	"errors"
	"fmt"
	"sync"

	glm "github.com/go-gl/mathgl/mgl32"

	"github.com/devblok/vram/util/collada"
)

// package errors
var (
	ErrEmptyDocument = errors.New("document contains no geometry")
	ErrMissingSource = errors.New("source type not found")
	ErrIndexLayout   = errors.New("triangle index does not match its inputs")
)

// fallbackColor paints corners of meshes that carry no normals.
var fallbackColor = glm.Vec4{1.0, 1.0, 0.0, 1.0}

// ImportColladaObject reads an exported .dae document and converts the
// first geometry to the engine's internal object. Triangles are
// unrolled corner by corner, normals, when present, become the corner
// color.
func ImportColladaObject(fileContents []byte) (Object, error) {
	var doc collada.Collada
	if err := xml.Unmarshal(fileContents, &doc); err != nil {
		return nil, fmt.Errorf("model.ImportColladaObject(): %w", err)
	}
	if len(doc.Geometries) == 0 {
		return nil, ErrEmptyDocument
	}
	mesh := doc.Geometries[0].Mesh

	vertexInput, ok := mesh.Triangles.Input(collada.SemanticVertex)
	if !ok {
		return nil, ErrMissingSource
	}
	positions, ok := mesh.Source(vertexInput.Source)
	if !ok {
		return nil, ErrMissingSource
	}

	var normals collada.Source
	normalInput, hasNormals := mesh.Triangles.Input(collada.SemanticNormal)
	if hasNormals {
		normals, hasNormals = mesh.Source(normalInput.Source)
	}

	stride := mesh.Triangles.Stride()
	if stride == 0 || len(mesh.Triangles.Index)%stride != 0 {
		return nil, ErrIndexLayout
	}

	vertices := make([]Vertex, 0, len(mesh.Triangles.Index)/stride)
	for corner := 0; corner < len(mesh.Triangles.Index); corner += stride {
		indices := mesh.Triangles.Index[corner : corner+stride]

		pos, ok := positions.Vector(indices[vertexInput.Offset], 3)
		if !ok {
			return nil, ErrIndexLayout
		}
		vert := Vertex{
			Pos:   glm.Vec3{pos[0], pos[1], pos[2]},
			Color: fallbackColor,
		}
		if hasNormals {
			n, ok := normals.Vector(indices[normalInput.Offset], 3)
			if !ok {
				return nil, ErrIndexLayout
			}
			// unit normal shifted into visible color range
			vert.Color = glm.Vec4{n[0]*0.5 + 0.5, n[1]*0.5 + 0.5, n[2]*0.5 + 0.5, 1.0}
		}
		vertices = append(vertices, vert)
	}

	return &ColladaObject{vertices: vertices}, nil
}

// ColladaObject is imported from a collada (.dae) file.
// Loaded and held in memory
type ColladaObject struct {
	mutex    sync.RWMutex
	position glm.Mat4
	rotation glm.Mat4

	vertices []Vertex
}

var _ Object = (*ColladaObject)(nil)

// SetPosition implements interface
func (co *ColladaObject) SetPosition(pos glm.Mat4) {
	co.mutex.Lock()
	co.position = pos
	co.mutex.Unlock()
}

// Position implements interface
func (co *ColladaObject) Position() glm.Mat4 {
	co.mutex.RLock()
	defer co.mutex.RUnlock()
	return co.position
}

// SetRotation implements interface
func (co *ColladaObject) SetRotation(rot glm.Mat4) {
	co.mutex.Lock()
	co.rotation = rot
	co.mutex.Unlock()
}

// Rotation implements interface
func (co *ColladaObject) Rotation() glm.Mat4 {
	co.mutex.RLock()
	defer co.mutex.RUnlock()
	return co.rotation
}

// Vertices implements interface
func (co *ColladaObject) Vertices() []Vertex {
	return co.vertices
}

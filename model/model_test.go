package model_test

import (
	"encoding/binary"
	"errors"
	"math"
	"sync"
	"testing"

	glm "github.com/go-gl/mathgl/mgl32"

	"github.com/devblok/vram/core"
	"github.com/devblok/vram/driver"
	"github.com/devblok/vram/model"
)

// triangleObject is the smallest thing that satisfies model.Object.
type triangleObject struct {
	mutex    sync.RWMutex
	position glm.Mat4
	rotation glm.Mat4
	vertices []model.Vertex
}

func (o *triangleObject) SetPosition(pos glm.Mat4) {
	o.mutex.Lock()
	o.position = pos
	o.mutex.Unlock()
}

func (o *triangleObject) Position() glm.Mat4 {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return o.position
}

func (o *triangleObject) SetRotation(rot glm.Mat4) {
	o.mutex.Lock()
	o.rotation = rot
	o.mutex.Unlock()
}

func (o *triangleObject) Rotation() glm.Mat4 {
	o.mutex.RLock()
	defer o.mutex.RUnlock()
	return o.rotation
}

func (o *triangleObject) Vertices() []model.Vertex {
	return o.vertices
}

func newTestContext(t testing.TB) *core.Context {
	t.Helper()
	ctx, err := core.NewContext(driver.NewSoftDevice(driver.SoftConfiguration{}), core.ContextConfiguration{})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(ctx.Release)
	return ctx
}

func TestVertexStride(t *testing.T) {
	if model.Stride() != 28 {
		t.Errorf("vertex packs to %d bytes, layout %q expects 28", model.Stride(), model.VertexLayout)
	}
}

func TestBytesView(t *testing.T) {
	verts := []model.Vertex{
		{Pos: glm.Vec3{1, 2, 3}, Color: glm.Vec4{0, 0, 0, 1}},
		{Pos: glm.Vec3{4, 5, 6}, Color: glm.Vec4{1, 1, 1, 1}},
	}
	raw := model.Bytes(verts)
	if len(raw) != 2*model.Stride() {
		t.Fatalf("byte view spans %d bytes", len(raw))
	}

	at := func(offset int) float32 {
		return math.Float32frombits(binary.NativeEndian.Uint32(raw[offset : offset+4]))
	}
	if at(0) != 1 || at(4) != 2 || at(8) != 3 {
		t.Error("position floats landed off their offsets")
	}
	if at(12) != 0 || at(24) != 1 {
		t.Error("color floats landed off their offsets")
	}

	// the view aliases, writes to the slice show up in the bytes
	verts[0].Pos[0] = 42
	if at(0) != 42 {
		t.Error("byte view did not track the vertex write")
	}

	if model.Bytes(nil) != nil {
		t.Error("empty slice produced a byte view")
	}
}

func TestUniformBytes(t *testing.T) {
	u := model.Uniform{Model: glm.Ident4(), View: glm.Ident4(), Projection: glm.Ident4()}
	raw := model.UniformBytes(&u)
	if len(raw) != 3*64 {
		t.Fatalf("uniform block spans %d bytes", len(raw))
	}
	at := func(offset int) float32 {
		return math.Float32frombits(binary.NativeEndian.Uint32(raw[offset : offset+4]))
	}
	// identity diagonals of all three matrices
	for _, offset := range []int{0, 20, 40, 60, 64, 128} {
		if at(offset) != 1 {
			t.Errorf("expected 1.0 at byte %d", offset)
		}
	}
}

func TestUpload(t *testing.T) {
	ctx := newTestContext(t)

	obj := &triangleObject{vertices: []model.Vertex{
		{Pos: glm.Vec3{0, 0, 0}, Color: glm.Vec4{1, 0, 0, 1}},
		{Pos: glm.Vec3{1, 0, 0}, Color: glm.Vec4{0, 1, 0, 1}},
		{Pos: glm.Vec3{0, 1, 0}, Color: glm.Vec4{0, 0, 1, 1}},
	}}
	buf, err := model.Upload(ctx, obj)
	if err != nil {
		t.Fatal(err)
	}
	if buf.Size() != 3*model.Stride() {
		t.Errorf("upload sized at %d bytes", buf.Size())
	}

	binding := model.VertexBinding(buf)
	if binding.Layout != model.VertexLayout {
		t.Errorf("binding carries layout %q", binding.Layout)
	}
	if len(binding.Attributes) != 2 || binding.Attributes[0] != "in_pos" || binding.Attributes[1] != "in_color" {
		t.Errorf("binding carries attributes %v", binding.Attributes)
	}
	if binding.Buffer != buf {
		t.Error("binding lost its buffer")
	}

	slot := model.UniformSlot(buf)
	if slot.Index != 0 || slot.Buffer != buf {
		t.Errorf("uniform slot came back as %+v", slot)
	}

	if _, err := model.Upload(ctx, &triangleObject{}); err == nil {
		t.Error("upload of an empty object got through")
	}
}

const triangleDoc = `
<COLLADA>
	<library_geometries>
		<geometry id="Tri-mesh" name="Tri">
			<mesh>
				<source id="Tri-mesh-positions">
					<float_array id="Tri-mesh-positions-array" count="9">0 0 0
						1 0 0
						0 1 0</float_array>
				</source>
				<source id="Tri-mesh-normals">
					<float_array id="Tri-mesh-normals-array" count="3">0 0 1</float_array>
				</source>
				<vertices id="Tri-mesh-vertices">
					<input semantic="POSITION" source="#Tri-mesh-positions"/>
				</vertices>
				<triangles material="Default" count="1">
					<input semantic="VERTEX" source="#Tri-mesh-vertices" offset="0"/>
					<input semantic="NORMAL" source="#Tri-mesh-normals" offset="1"/>
					<p>0 0 1 0 2 0</p>
				</triangles>
			</mesh>
		</geometry>
	</library_geometries>
</COLLADA>
`

func TestImportCollada(t *testing.T) {
	obj, err := model.ImportColladaObject([]byte(triangleDoc))
	if err != nil {
		t.Fatal(err)
	}

	verts := obj.Vertices()
	if len(verts) != 3 {
		t.Fatalf("imported %d vertices", len(verts))
	}
	wantPos := []glm.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	for i, want := range wantPos {
		if verts[i].Pos != want {
			t.Errorf("vertex %d at %v, expected %v", i, verts[i].Pos, want)
		}
	}
	// +Z normal shifts to the pale blue corner of color space
	wantColor := glm.Vec4{0.5, 0.5, 1, 1}
	for i, v := range verts {
		if v.Color != wantColor {
			t.Errorf("vertex %d colored %v", i, v.Color)
		}
	}

	rot := glm.HomogRotate3DZ(math.Pi / 2)
	obj.SetRotation(rot)
	if obj.Rotation() != rot {
		t.Error("rotation did not round trip")
	}
	pos := glm.Translate3D(1, 2, 3)
	obj.SetPosition(pos)
	if obj.Position() != pos {
		t.Error("position did not round trip")
	}
	if obj.Rotation() != rot {
		t.Error("position write clobbered the rotation")
	}

	ctx := newTestContext(t)
	buf, err := model.Upload(ctx, obj)
	if err != nil {
		t.Fatal(err)
	}
	if buf.Size() != 3*model.Stride() {
		t.Errorf("imported mesh uploads to %d bytes", buf.Size())
	}
}

func TestImportColladaNoNormals(t *testing.T) {
	doc := `
	<COLLADA>
		<library_geometries>
			<geometry id="Tri-mesh">
				<mesh>
					<source id="Tri-mesh-positions">
						<float_array id="Tri-mesh-positions-array" count="9">0 0 0 1 0 0 0 1 0</float_array>
					</source>
					<vertices id="Tri-mesh-vertices">
						<input semantic="POSITION" source="#Tri-mesh-positions"/>
					</vertices>
					<triangles count="1">
						<input semantic="VERTEX" source="#Tri-mesh-vertices" offset="0"/>
						<p>0 1 2</p>
					</triangles>
				</mesh>
			</geometry>
		</library_geometries>
	</COLLADA>
	`
	obj, err := model.ImportColladaObject([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	verts := obj.Vertices()
	if len(verts) != 3 {
		t.Fatalf("imported %d vertices", len(verts))
	}
	want := glm.Vec4{1, 1, 0, 1}
	if verts[0].Color != want {
		t.Errorf("fallback color came back as %v", verts[0].Color)
	}
}

func TestImportColladaErrors(t *testing.T) {
	if _, err := model.ImportColladaObject([]byte(`<COLLADA></COLLADA>`)); !errors.Is(err, model.ErrEmptyDocument) {
		t.Errorf("empty document: %v", err)
	}
	if _, err := model.ImportColladaObject([]byte(`not xml at all`)); err == nil {
		t.Error("malformed document got through")
	}

	noVertexInput := `
	<COLLADA>
		<library_geometries>
			<geometry id="g"><mesh>
				<source id="s"><float_array count="3">0 0 0</float_array></source>
				<triangles count="1"><p>0 0 0</p></triangles>
			</mesh></geometry>
		</library_geometries>
	</COLLADA>
	`
	if _, err := model.ImportColladaObject([]byte(noVertexInput)); !errors.Is(err, model.ErrMissingSource) {
		t.Errorf("missing vertex input: %v", err)
	}

	runawayIndex := `
	<COLLADA>
		<library_geometries>
			<geometry id="g"><mesh>
				<source id="p"><float_array count="3">0 0 0</float_array></source>
				<vertices id="v"><input semantic="POSITION" source="#p"/></vertices>
				<triangles count="1">
					<input semantic="VERTEX" source="#v" offset="0"/>
					<p>0 0 9</p>
				</triangles>
			</mesh></geometry>
		</library_geometries>
	</COLLADA>
	`
	if _, err := model.ImportColladaObject([]byte(runawayIndex)); !errors.Is(err, model.ErrIndexLayout) {
		t.Errorf("runaway index: %v", err)
	}
}

package driver_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/devblok/vram/driver"
)

func TestBufferWriteRead(t *testing.T) {
	dev := driver.NewSoftDevice(driver.SoftConfiguration{})
	defer dev.Release()

	buf, err := dev.NewBuffer(nil, 64, false)
	if err != nil {
		t.Fatal(err)
	}
	payload := []byte("0123456789abcdef")
	if err := buf.Write(payload, 16); err != nil {
		t.Error(err)
	}
	got := make([]byte, len(payload))
	if err := buf.Read(got, 16); err != nil {
		t.Error(err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("read back %q, wrote %q", got, payload)
	}
	if err := buf.Write(payload, 56); !errors.Is(err, driver.ErrOutOfRange) {
		t.Errorf("expected range error, got %v", err)
	}
	if err := buf.Read(got, -1); !errors.Is(err, driver.ErrOutOfRange) {
		t.Errorf("expected range error, got %v", err)
	}
}

func TestBufferCreation(t *testing.T) {
	dev := driver.NewSoftDevice(driver.SoftConfiguration{})
	defer dev.Release()

	if _, err := dev.NewBuffer(nil, 0, false); !errors.Is(err, driver.ErrDimensions) {
		t.Errorf("expected dimension error, got %v", err)
	}
	if _, err := dev.NewBuffer([]byte{}, 0, false); !errors.Is(err, driver.ErrDimensions) {
		t.Errorf("expected dimension error, got %v", err)
	}
	if _, err := dev.NewBuffer([]byte{1}, 16, false); !errors.Is(err, driver.ErrDimensions) {
		t.Errorf("expected dimension error, got %v", err)
	}
	buf, err := dev.NewBuffer([]byte{1, 2, 3, 4}, 0, true)
	if err != nil {
		t.Fatal(err)
	}
	if buf.Size() != 4 {
		t.Errorf("size %d, expected 4", buf.Size())
	}
	if buf.ID() == 0 {
		t.Error("live buffer reports zero ID")
	}
}

func TestBufferChunks(t *testing.T) {
	dev := driver.NewSoftDevice(driver.SoftConfiguration{})
	defer dev.Release()

	buf, err := dev.NewBuffer(nil, 32, false)
	if err != nil {
		t.Fatal(err)
	}
	// four 2 byte chunks every 8 bytes
	if err := buf.WriteChunks([]byte{1, 1, 2, 2, 3, 3, 4, 4}, 0, 8, 4); err != nil {
		t.Error(err)
	}
	got := make([]byte, 8)
	if err := buf.ReadChunks(got, 2, 0, 8, 4); err != nil {
		t.Error(err)
	}
	if !bytes.Equal(got, []byte{1, 1, 2, 2, 3, 3, 4, 4}) {
		t.Errorf("chunks came back as %v", got)
	}
	whole := make([]byte, 32)
	if err := buf.Read(whole, 0); err != nil {
		t.Error(err)
	}
	if whole[8] != 2 || whole[16] != 3 || whole[24] != 4 {
		t.Errorf("chunks landed wrong: %v", whole)
	}

	if err := buf.WriteChunks([]byte{1, 2, 3}, 0, 8, 2); !errors.Is(err, driver.ErrChunkLayout) {
		t.Errorf("expected chunk layout error, got %v", err)
	}
	if err := buf.WriteChunks([]byte{1, 2}, 31, 8, 2); !errors.Is(err, driver.ErrOutOfRange) {
		t.Errorf("expected range error, got %v", err)
	}
}

func TestBufferChunksInto(t *testing.T) {
	dev := driver.NewSoftDevice(driver.SoftConfiguration{})
	defer dev.Release()

	src, err := dev.NewBuffer(nil, 24, false)
	if err != nil {
		t.Fatal(err)
	}
	dst, err := dev.NewBuffer(nil, 8, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := src.WriteChunks([]byte{7, 7, 8, 8}, 4, 12, 2); err != nil {
		t.Error(err)
	}
	if err := src.ReadChunksInto(dst, 2, 4, 12, 2, 2); err != nil {
		t.Error(err)
	}
	got := make([]byte, 8)
	if err := dst.Read(got, 0); err != nil {
		t.Error(err)
	}
	if !bytes.Equal(got, []byte{0, 0, 7, 7, 8, 8, 0, 0}) {
		t.Errorf("gather landed as %v", got)
	}
}

func TestBufferReadInto(t *testing.T) {
	dev := driver.NewSoftDevice(driver.SoftConfiguration{})
	defer dev.Release()

	src, err := dev.NewBuffer([]byte("abcdefgh"), 0, false)
	if err != nil {
		t.Fatal(err)
	}
	dst, err := dev.NewBuffer(nil, 8, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := src.ReadInto(dst, -1, 4, 0); err != nil {
		t.Error(err)
	}
	got := make([]byte, 4)
	if err := dst.Read(got, 0); err != nil {
		t.Error(err)
	}
	if !bytes.Equal(got, []byte("efgh")) {
		t.Errorf("copied %q, expected %q", got, "efgh")
	}

	foreign := driver.NewSoftDevice(driver.SoftConfiguration{})
	defer foreign.Release()
	other, err := foreign.NewBuffer(nil, 8, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := src.ReadInto(other, -1, 0, 0); !errors.Is(err, driver.ErrForeign) {
		t.Errorf("expected foreign handle error, got %v", err)
	}
}

func TestBufferClear(t *testing.T) {
	dev := driver.NewSoftDevice(driver.SoftConfiguration{})
	defer dev.Release()

	buf, err := dev.NewBuffer([]byte{9, 9, 9, 9, 9, 9, 9, 9}, 0, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := buf.Clear(4, 2, []byte{1, 2}); err != nil {
		t.Error(err)
	}
	got := make([]byte, 8)
	if err := buf.Read(got, 0); err != nil {
		t.Error(err)
	}
	if !bytes.Equal(got, []byte{9, 9, 1, 2, 1, 2, 9, 9}) {
		t.Errorf("pattern clear left %v", got)
	}
	if err := buf.Clear(-1, 0, nil); err != nil {
		t.Error(err)
	}
	if err := buf.Read(got, 0); err != nil {
		t.Error(err)
	}
	if !bytes.Equal(got, make([]byte, 8)) {
		t.Errorf("zero clear left %v", got)
	}
	if err := buf.Clear(5, 0, []byte{1, 2}); !errors.Is(err, driver.ErrChunkLayout) {
		t.Errorf("expected chunk layout error, got %v", err)
	}
}

func TestBufferOrphan(t *testing.T) {
	dev := driver.NewSoftDevice(driver.SoftConfiguration{})
	defer dev.Release()

	buf, err := dev.NewBuffer([]byte{1, 2, 3, 4}, 0, true)
	if err != nil {
		t.Fatal(err)
	}
	if err := buf.Orphan(-1); err != nil {
		t.Error(err)
	}
	if buf.Size() != 4 {
		t.Errorf("orphan changed size to %d", buf.Size())
	}
	got := make([]byte, 4)
	if err := buf.Read(got, 0); err != nil {
		t.Error(err)
	}
	if !bytes.Equal(got, make([]byte, 4)) {
		t.Errorf("orphaned store still holds %v", got)
	}
	if err := buf.Orphan(16); err != nil {
		t.Error(err)
	}
	if buf.Size() != 16 {
		t.Errorf("orphan to 16 gave size %d", buf.Size())
	}
	if err := buf.Orphan(0); !errors.Is(err, driver.ErrDimensions) {
		t.Errorf("expected dimension error, got %v", err)
	}
}

func TestBufferBindRange(t *testing.T) {
	dev := driver.NewSoftDevice(driver.SoftConfiguration{})
	defer dev.Release()

	buf, err := dev.NewBuffer(nil, 256, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := buf.BindRange(driver.TargetUniformBlock, 3, 64, 128); err != nil {
		t.Error(err)
	}
	rb, ok := dev.RangeBindingAt(driver.TargetUniformBlock, 3)
	if !ok {
		t.Fatal("uniform binding not recorded")
	}
	if rb.Buffer != buf.ID() || rb.Offset != 64 || rb.Size != 128 {
		t.Errorf("binding recorded as %+v", rb)
	}
	if err := buf.BindRange(driver.TargetStorageBuffer, 0, 0, -1); err != nil {
		t.Error(err)
	}
	rb, ok = dev.RangeBindingAt(driver.TargetStorageBuffer, 0)
	if !ok {
		t.Fatal("storage binding not recorded")
	}
	if rb.Size != 256 {
		t.Errorf("open ended bind resolved to %d bytes", rb.Size)
	}
	if err := buf.BindRange(driver.TargetUniformBlock, -1, 0, -1); !errors.Is(err, driver.ErrOutOfRange) {
		t.Errorf("expected range error, got %v", err)
	}
}

func TestBufferRelease(t *testing.T) {
	dev := driver.NewSoftDevice(driver.SoftConfiguration{})
	defer dev.Release()

	buf, err := dev.NewBuffer(nil, 16, false)
	if err != nil {
		t.Fatal(err)
	}
	if dev.LiveObjects() != 1 {
		t.Errorf("%d live objects before release", dev.LiveObjects())
	}
	buf.Release()
	buf.Release()
	if dev.LiveObjects() != 0 {
		t.Errorf("%d live objects after release", dev.LiveObjects())
	}
	if buf.ID() != 0 {
		t.Error("released buffer still reports an ID")
	}
	if err := buf.Write([]byte{1}, 0); !errors.Is(err, driver.ErrReleased) {
		t.Errorf("expected released error, got %v", err)
	}
}

func TestInvalidHandle(t *testing.T) {
	var inv driver.Invalid
	if inv.ID() != 0 {
		t.Error("invalid handle has an ID")
	}
	if err := inv.Write([]byte{1}, 0); !errors.Is(err, driver.ErrReleased) {
		t.Errorf("expected released error, got %v", err)
	}
	if err := inv.ReadPixels(nil, 0, 1); !errors.Is(err, driver.ErrReleased) {
		t.Errorf("expected released error, got %v", err)
	}
	inv.Release()
}

func TestTextureRoundTrip(t *testing.T) {
	dev := driver.NewSoftDevice(driver.SoftConfiguration{})
	defer dev.Release()

	data := make([]byte, 4*4*2*3)
	for i := range data {
		data[i] = byte(i)
	}
	tex, err := dev.NewTextureArray(4, 4, 2, 3, driver.U8, data)
	if err != nil {
		t.Fatal(err)
	}
	got := make([]byte, len(data))
	if err := tex.ReadPixels(got, 0, 1); err != nil {
		t.Error(err)
	}
	if !bytes.Equal(got, data) {
		t.Error("texture read back differs from upload")
	}
}

func TestTextureRegionWrite(t *testing.T) {
	dev := driver.NewSoftDevice(driver.SoftConfiguration{})
	defer dev.Release()

	tex, err := dev.NewTextureArray(4, 4, 2, 1, driver.U8, nil)
	if err != nil {
		t.Fatal(err)
	}
	// 2x2 patch into the second layer at (1, 1)
	patch := []byte{5, 6, 7, 8}
	region := driver.Region{X: 1, Y: 1, Layer: 1, Width: 2, Height: 2, Layers: 1}
	if err := tex.WritePixels(patch, region, 0, 1); err != nil {
		t.Error(err)
	}
	got := make([]byte, 4*4*2)
	if err := tex.ReadPixels(got, 0, 1); err != nil {
		t.Error(err)
	}
	layer1 := got[16:]
	if layer1[4*1+1] != 5 || layer1[4*1+2] != 6 || layer1[4*2+1] != 7 || layer1[4*2+2] != 8 {
		t.Errorf("patch landed wrong: %v", layer1)
	}
	if got[0] != 0 || got[15] != 0 {
		t.Error("patch leaked into the first layer")
	}

	bad := driver.Region{X: 3, Y: 3, Width: 2, Height: 2, Layers: 1}
	if err := tex.WritePixels(patch, bad, 0, 1); !errors.Is(err, driver.ErrRegion) {
		t.Errorf("expected region error, got %v", err)
	}
}

func TestTextureAlignment(t *testing.T) {
	dev := driver.NewSoftDevice(driver.SoftConfiguration{})
	defer dev.Release()

	tex, err := dev.NewTexture2D(3, 2, 1, driver.U8, false, 0, []byte{1, 2, 3, 4, 5, 6})
	if err != nil {
		t.Fatal(err)
	}
	// rows of 3 pad to 4 under alignment 4
	got := make([]byte, 8)
	if err := tex.ReadPixels(got, 0, 4); err != nil {
		t.Error(err)
	}
	if !bytes.Equal(got, []byte{1, 2, 3, 0, 4, 5, 6, 0}) {
		t.Errorf("aligned read came back as %v", got)
	}
	if err := tex.ReadPixels(got, 0, 3); !errors.Is(err, driver.ErrAlignment) {
		t.Errorf("expected alignment error, got %v", err)
	}
}

func TestTextureBufferTraffic(t *testing.T) {
	dev := driver.NewSoftDevice(driver.SoftConfiguration{})
	defer dev.Release()

	pixels := []byte{1, 2, 3, 4}
	src, err := dev.NewBuffer(pixels, 0, false)
	if err != nil {
		t.Fatal(err)
	}
	tex, err := dev.NewTexture2D(2, 2, 1, driver.U8, false, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := tex.WritePixelsFrom(src, driver.Region{}, 0, 1); err != nil {
		t.Error(err)
	}
	dst, err := dev.NewBuffer(nil, 4, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := tex.ReadPixelsInto(dst, 0, 1, 0); err != nil {
		t.Error(err)
	}
	got := make([]byte, 4)
	if err := dst.Read(got, 0); err != nil {
		t.Error(err)
	}
	if !bytes.Equal(got, pixels) {
		t.Errorf("buffer traffic returned %v", got)
	}
}

func TestTextureMipmaps(t *testing.T) {
	dev := driver.NewSoftDevice(driver.SoftConfiguration{})
	defer dev.Release()

	data := bytes.Repeat([]byte{100, 150, 200, 255}, 4*4)
	tex, err := dev.NewTexture2D(4, 4, 4, driver.U8, false, 0, data)
	if err != nil {
		t.Fatal(err)
	}
	if err := tex.BuildMipmaps(0, 1000); err != nil {
		t.Error(err)
	}
	want := driver.Filter{Min: driver.FilterLinearMipmapLinear, Mag: driver.FilterLinear}
	if tex.Filter() != want {
		t.Errorf("mipmap build left filter at %v", tex.Filter())
	}
	level1 := make([]byte, 2*2*4)
	if err := tex.ReadPixels(level1, 1, 1); err != nil {
		t.Error(err)
	}
	if !bytes.Equal(level1, bytes.Repeat([]byte{100, 150, 200, 255}, 4)) {
		t.Errorf("uniform image scaled to %v", level1)
	}
	level2 := make([]byte, 4)
	if err := tex.ReadPixels(level2, 2, 1); err != nil {
		t.Error(err)
	}
	if !bytes.Equal(level2, []byte{100, 150, 200, 255}) {
		t.Errorf("deepest level scaled to %v", level2)
	}

	f32, err := dev.NewTexture2D(2, 2, 1, driver.F32, false, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := f32.BuildMipmaps(0, 1000); !errors.Is(err, driver.ErrDataType) {
		t.Errorf("expected data type error, got %v", err)
	}
}

func TestTextureSwizzle(t *testing.T) {
	dev := driver.NewSoftDevice(driver.SoftConfiguration{})
	defer dev.Release()

	tex, err := dev.NewTexture2D(2, 2, 4, driver.U8, false, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if tex.Swizzle() != "RGBA" {
		t.Errorf("fresh texture swizzles %q", tex.Swizzle())
	}
	if err := tex.SetSwizzle("abgr"); err != nil {
		t.Error(err)
	}
	if tex.Swizzle() != "ABGR" {
		t.Errorf("swizzle stored as %q", tex.Swizzle())
	}
	if err := tex.SetSwizzle("RGB"); !errors.Is(err, driver.ErrSwizzle) {
		t.Errorf("expected swizzle error, got %v", err)
	}
	if err := tex.SetSwizzle("RGBX"); !errors.Is(err, driver.ErrSwizzle) {
		t.Errorf("expected swizzle error, got %v", err)
	}
}

func TestTextureAnisotropy(t *testing.T) {
	dev := driver.NewSoftDevice(driver.SoftConfiguration{MaxAnisotropy: 8})
	defer dev.Release()

	tex, err := dev.NewTexture2D(2, 2, 1, driver.U8, false, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := tex.SetAnisotropy(16); err != nil {
		t.Error(err)
	}
	if tex.Anisotropy() != 8 {
		t.Errorf("anisotropy clamped to %v, expected 8", tex.Anisotropy())
	}
	if err := tex.SetAnisotropy(0.25); err != nil {
		t.Error(err)
	}
	if tex.Anisotropy() != 1 {
		t.Errorf("anisotropy clamped to %v, expected 1", tex.Anisotropy())
	}
}

func TestTextureCompareFunc(t *testing.T) {
	dev := driver.NewSoftDevice(driver.SoftConfiguration{})
	defer dev.Release()

	depth, err := dev.NewTexture2D(4, 4, 1, driver.F32, true, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if depth.CompareFunc() != "<=" {
		t.Errorf("fresh depth texture compares %q", depth.CompareFunc())
	}
	if err := depth.SetCompareFunc(">"); err != nil {
		t.Error(err)
	}
	if err := depth.SetCompareFunc(""); err != nil {
		t.Error(err)
	}
	if err := depth.SetCompareFunc("~"); !errors.Is(err, driver.ErrCompareFunc) {
		t.Errorf("expected compare func error, got %v", err)
	}
	if err := depth.SetSwizzle("RGBA"); !errors.Is(err, driver.ErrSwizzle) {
		t.Errorf("expected swizzle error on depth texture, got %v", err)
	}

	color, err := dev.NewTexture2D(4, 4, 4, driver.U8, false, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := color.SetCompareFunc("<"); !errors.Is(err, driver.ErrNoDepth) {
		t.Errorf("expected depth error, got %v", err)
	}
}

func TestTextureUnits(t *testing.T) {
	dev := driver.NewSoftDevice(driver.SoftConfiguration{})
	defer dev.Release()

	tex, err := dev.NewTexture2D(2, 2, 1, driver.U8, false, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := tex.Use(5); err != nil {
		t.Error(err)
	}
	if dev.TextureAt(5) != tex.ID() {
		t.Error("texture unit 5 not holding the texture")
	}
	if err := tex.BindToImage(2, true, false, 0, 0); err != nil {
		t.Error(err)
	}
	ib, ok := dev.ImageBindingAt(2)
	if !ok {
		t.Fatal("image binding not recorded")
	}
	if ib.Texture != tex.ID() || !ib.Read || ib.Write {
		t.Errorf("image binding recorded as %+v", ib)
	}
	if err := tex.BindToImage(2, false, false, 0, 0); !errors.Is(err, driver.ErrAccess) {
		t.Errorf("expected access error, got %v", err)
	}
}

func TestMultisample(t *testing.T) {
	dev := driver.NewSoftDevice(driver.SoftConfiguration{})
	defer dev.Release()

	if _, err := dev.NewTexture2D(4, 4, 4, driver.U8, false, 4, []byte{1}); !errors.Is(err, driver.ErrMultisample) {
		t.Errorf("expected multisample error, got %v", err)
	}
	ms, err := dev.NewTexture2D(4, 4, 4, driver.U8, false, 4, nil)
	if err != nil {
		t.Fatal(err)
	}
	got := make([]byte, 4*4*4)
	if err := ms.ReadPixels(got, 0, 1); !errors.Is(err, driver.ErrMultisample) {
		t.Errorf("expected multisample error, got %v", err)
	}
	if _, err := dev.NewTexture2D(4, 4, 4, driver.U8, false, 3, nil); !errors.Is(err, driver.ErrDimensions) {
		t.Errorf("expected dimension error, got %v", err)
	}
}

func TestDepthCreation(t *testing.T) {
	dev := driver.NewSoftDevice(driver.SoftConfiguration{})
	defer dev.Release()

	if _, err := dev.NewTexture2D(4, 4, 3, driver.F32, true, 0, nil); !errors.Is(err, driver.ErrDimensions) {
		t.Errorf("expected dimension error, got %v", err)
	}
	if _, err := dev.NewTexture2D(4, 4, 1, driver.U8, true, 0, nil); !errors.Is(err, driver.ErrDataType) {
		t.Errorf("expected data type error, got %v", err)
	}
}

func BenchmarkBufferWrite(b *testing.B) {
	dev := driver.NewSoftDevice(driver.SoftConfiguration{})
	defer dev.Release()

	buf, err := dev.NewBuffer(nil, 1<<20, true)
	if err != nil {
		b.Fatal(err)
	}
	payload := make([]byte, 1<<20)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := buf.Write(payload, 0); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkTextureReadPixels(b *testing.B) {
	dev := driver.NewSoftDevice(driver.SoftConfiguration{})
	defer dev.Release()

	tex, err := dev.NewTextureArray(256, 256, 4, 4, driver.U8, nil)
	if err != nil {
		b.Fatal(err)
	}
	dst := make([]byte, 256*256*4*4)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := tex.ReadPixels(dst, 0, 1); err != nil {
			b.Fatal(err)
		}
	}
}

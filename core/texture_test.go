package core_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/devblok/vram/core"
	"github.com/devblok/vram/driver"
)

func TestTextureLevels(t *testing.T) {
	ctx, _ := newTestContext(t, core.ContextConfiguration{})

	tex, err := ctx.NewTexture2D(4, 4, 1, core.U8, bytes.Repeat([]byte{0x40}, 16))
	if err != nil {
		t.Fatal(err)
	}
	if w, h := tex.Size(); w != 4 || h != 4 {
		t.Errorf("size came back as %dx%d", w, h)
	}
	if err := tex.BuildMipmaps(0, 1000); err != nil {
		t.Error(err)
	}
	level1, err := tex.Read(1, 1)
	if err != nil {
		t.Error(err)
	}
	if !bytes.Equal(level1, bytes.Repeat([]byte{0x40}, 4)) {
		t.Errorf("level 1 scaled to %v", level1)
	}

	patch := []byte{7, 8, 9, 10}
	if err := tex.Write(patch, &core.Region{Width: 2, Height: 2}, 1, 1); err != nil {
		t.Error(err)
	}
	level1, err = tex.Read(1, 1)
	if err != nil {
		t.Error(err)
	}
	if !bytes.Equal(level1, patch) {
		t.Errorf("level 1 write read back as %v", level1)
	}

	base, err := tex.Read(0, 1)
	if err != nil {
		t.Error(err)
	}
	if !bytes.Equal(base, bytes.Repeat([]byte{0x40}, 16)) {
		t.Error("level write leaked into the base level")
	}
}

func TestTextureDepth(t *testing.T) {
	ctx, _ := newTestContext(t, core.ContextConfiguration{})

	depth, err := ctx.NewDepthTexture2D(4, 4, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !depth.Depth() {
		t.Error("depth texture does not report depth")
	}
	if depth.Components() != 1 || depth.DataType() != core.F32 {
		t.Error("depth texture has the wrong pixel format")
	}
	if depth.CompareFunc() != "<=" {
		t.Errorf("fresh depth texture compares %q", depth.CompareFunc())
	}
	if err := depth.SetCompareFunc(">="); err != nil {
		t.Error(err)
	}
	if depth.CompareFunc() != ">=" {
		t.Errorf("compare func round tripped as %q", depth.CompareFunc())
	}
	if err := depth.SetCompareFunc(""); err != nil {
		t.Error(err)
	}
	if err := depth.SetCompareFunc("between"); !errors.Is(err, driver.ErrCompareFunc) {
		t.Errorf("expected compare func error, got %v", err)
	}
	if err := depth.SetSwizzle("RRRR"); !errors.Is(err, driver.ErrSwizzle) {
		t.Errorf("expected swizzle error on depth texture, got %v", err)
	}

	color, err := ctx.NewTexture2D(4, 4, 4, core.U8, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := color.SetCompareFunc("<"); !errors.Is(err, driver.ErrNoDepth) {
		t.Errorf("expected depth error, got %v", err)
	}
}

func TestTextureMultisample(t *testing.T) {
	ctx, _ := newTestContext(t, core.ContextConfiguration{})

	ms, err := ctx.NewMultisampleTexture2D(8, 8, 4, core.U8, 4)
	if err != nil {
		t.Fatal(err)
	}
	if ms.Samples() != 4 {
		t.Errorf("samples came back as %d", ms.Samples())
	}
	if _, err := ms.Read(0, 1); !errors.Is(err, driver.ErrMultisample) {
		t.Errorf("expected multisample error, got %v", err)
	}
	if err := ms.Write([]byte{1}, nil, 0, 1); !errors.Is(err, driver.ErrMultisample) {
		t.Errorf("expected multisample error, got %v", err)
	}
	if err := ms.BuildMipmaps(0, 1000); !errors.Is(err, driver.ErrMultisample) {
		t.Errorf("expected multisample error, got %v", err)
	}
}

func TestTextureFloatData(t *testing.T) {
	ctx, _ := newTestContext(t, core.ContextConfiguration{})

	tex, err := ctx.NewTexture2D(2, 2, 2, core.F32, nil)
	if err != nil {
		t.Fatal(err)
	}
	payload := make([]byte, 2*2*2*4)
	for i := range payload {
		payload[i] = byte(255 - i)
	}
	if err := tex.Write(payload, nil, 0, 1); err != nil {
		t.Error(err)
	}
	got, err := tex.Read(0, 1)
	if err != nil {
		t.Error(err)
	}
	if !bytes.Equal(got, payload) {
		t.Error("float texture bytes did not round trip")
	}
	if err := tex.BuildMipmaps(0, 1000); !errors.Is(err, driver.ErrDataType) {
		t.Errorf("expected data type error, got %v", err)
	}
}

func TestTextureReleaseProtocol(t *testing.T) {
	ctx, dev := newTestContext(t, core.ContextConfiguration{})

	tex, err := ctx.NewTexture2D(2, 2, 1, core.U8, nil)
	if err != nil {
		t.Fatal(err)
	}
	tex.Release()
	tex.Release()
	if dev.LiveObjects() != 0 {
		t.Errorf("%d device objects survive release", dev.LiveObjects())
	}
	if tex.Width() != 2 || tex.Height() != 2 {
		t.Error("geometry forgotten after release")
	}
	if _, err := tex.Read(0, 1); !errors.Is(err, driver.ErrReleased) {
		t.Errorf("expected released error, got %v", err)
	}
	if tex.String() != "<Texture: released>" {
		t.Errorf("released texture prints as %q", tex)
	}
}

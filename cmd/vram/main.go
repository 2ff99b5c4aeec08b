package main

import (
	"bytes"
	"encoding/binary"
	"flag"
	"image"
	"image/png"
	"math"
	"os"
	"runtime"
	"runtime/pprof"
	"strconv"
	"time"

	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/gobuffalo/envy"
	"github.com/gobuffalo/packr"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/mmap"

	"github.com/devblok/vram/core"
	"github.com/devblok/vram/driver"
	"github.com/devblok/vram/model"
	"github.com/devblok/vram/utility/pak"
)

// StaticResources holds the assets compiled into the binary.
var StaticResources packr.Box

func init() {
	StaticResources = packr.NewBox("./assets")
}

var (
	cpuProfile = flag.String("cpuprof", "", "Profile CPU usage to file")
	memProfile = flag.String("memprof", "", "Profile memory usage into a file")
	envFile    = flag.String("env", "", "Load environment overrides from this file")
	pakFile    = flag.String("pak", "", "Read assets from this pak archive instead of the embedded set")
	outFile    = flag.String("out", "readback.png", "Write the texture readback mosaic here")
)

const (
	texSize   = 64
	texLayers = 4
)

type demoConfiguration struct {
	gc     core.GCMode
	fps    int
	frames int
	level  log.Level
}

func configure() (demoConfiguration, error) {
	if *envFile != "" {
		if err := godotenv.Overload(*envFile); err != nil {
			return demoConfiguration{}, err
		}
	}

	level, err := log.ParseLevel(envy.Get("VRAM_LOG_LEVEL", "info"))
	if err != nil {
		return demoConfiguration{}, err
	}
	mode, err := core.ParseGCMode(envy.Get("VRAM_GC_MODE", "context"))
	if err != nil {
		return demoConfiguration{}, err
	}
	fps, err := strconv.Atoi(envy.Get("VRAM_FPS", "240"))
	if err != nil {
		return demoConfiguration{}, err
	}
	frames, err := strconv.Atoi(envy.Get("VRAM_FRAMES", "120"))
	if err != nil {
		return demoConfiguration{}, err
	}
	return demoConfiguration{gc: mode, fps: fps, frames: frames, level: level}, nil
}

func main() {
	flag.Parse()

	cfg, err := configure()
	if err != nil {
		log.Fatal(err)
	}
	log.SetLevel(cfg.level)

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			log.Fatal(err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal(err)
		}
		defer pprof.StopCPUProfile()
	}

	dev := driver.NewSoftDevice(driver.SoftConfiguration{})
	ctx, err := core.NewContext(dev, core.ContextConfiguration{
		GC:     cfg.gc,
		Logger: log.StandardLogger(),
	})
	if err != nil {
		log.Fatal(err)
	}
	defer ctx.Release()

	log.WithFields(log.Fields{
		"device": ctx.Info().Name,
		"gc":     ctx.GC().String(),
	}).Info("context up")

	assets, err := openAssets()
	if err != nil {
		log.Fatal(err)
	}

	obj, vertexBuf, uniformBuf, err := loadCube(ctx, assets)
	if err != nil {
		log.Fatal(err)
	}

	count := len(obj.Vertices())
	if err := recolor(vertexBuf, count, [4]float32{0.2, 0.8, 0.4, 1}); err != nil {
		log.Fatal(err)
	}
	colors, err := vertexBuf.ReadChunks(16, 12, model.Stride(), count)
	if err != nil {
		log.Fatal(err)
	}
	log.WithFields(log.Fields{"vertices": count, "bytes": len(colors)}).Info("recolored in place")

	tex, err := buildTextureStack(ctx)
	if err != nil {
		log.Fatal(err)
	}

	if err := uploadTextureEntries(ctx, assets); err != nil {
		log.Fatal(err)
	}

	if err := runFrames(ctx, cfg, obj, uniformBuf); err != nil {
		log.Fatal(err)
	}

	if err := writeMosaic(tex, *outFile); err != nil {
		log.Fatal(err)
	}

	stats := ctx.Stats()
	log.WithFields(log.Fields{
		"buffers":   stats.Buffers,
		"textures":  stats.Textures,
		"collected": stats.Collected,
		"pending":   ctx.PendingReleases(),
	}).Info("demo finished")

	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			log.Fatal(err)
		}
		runtime.GC()
		if err := pprof.WriteHeapProfile(f); err != nil {
			log.Fatal(err)
		}
		f.Close()
	}
}

// openAssets stages the embedded assets into an in-memory pak, or
// maps the archive given with -pak.
func openAssets() (*pak.Archive, error) {
	if *pakFile != "" {
		r, err := mmap.Open(*pakFile)
		if err != nil {
			return nil, err
		}
		return pak.Open(r)
	}

	builder, err := pak.NewBuilder(pak.Header{
		Author:      "vram",
		DateCreated: time.Now().Unix(),
		Version:     1,
	})
	if err != nil {
		return nil, err
	}
	cube, err := StaticResources.MustBytes("cube.dae")
	if err != nil {
		return nil, err
	}
	if err := builder.Add("cube.dae", bytes.NewReader(cube), pak.Meta{Kind: pak.KindBlob}); err != nil {
		return nil, err
	}

	var archive bytes.Buffer
	if _, err := builder.WriteTo(&archive); err != nil {
		return nil, err
	}
	return pak.Open(bytes.NewReader(archive.Bytes()))
}

// uploadTextureEntries pushes every texture entry the archive carries
// onto the device, sized by the metadata it was packed with. Archives
// built by vrampak tag decodable images this way.
func uploadTextureEntries(ctx *core.Context, assets *pak.Archive) error {
	for _, entry := range assets.Index() {
		if entry.Meta.Kind != pak.KindTexture2D {
			continue
		}
		r, err := assets.Open(entry.Name)
		if err != nil {
			return err
		}
		img, _, err := image.Decode(r)
		if err != nil {
			return err
		}
		pixels, err := core.Pixels(img, 1)
		if err != nil {
			return err
		}
		dt, err := driver.ParseDataType(entry.Meta.DataType)
		if err != nil {
			return err
		}
		tex, err := ctx.NewTexture2D(entry.Meta.Width, entry.Meta.Height, 4, dt, pixels)
		if err != nil {
			return err
		}
		log.WithFields(log.Fields{
			"entry":   entry.Name,
			"texture": tex.String(),
		}).Info("texture entry uploaded")
	}
	return nil
}

// loadCube imports the cube mesh and uploads it together with its
// transform block.
func loadCube(ctx *core.Context, assets *pak.Archive) (model.Object, *core.Buffer, *core.Buffer, error) {
	doc, err := assets.ReadAll("cube.dae")
	if err != nil {
		return nil, nil, nil, err
	}
	obj, err := model.ImportColladaObject(doc)
	if err != nil {
		return nil, nil, nil, err
	}
	obj.SetPosition(glm.Translate3D(0, 0, -4))

	vertexBuf, err := model.Upload(ctx, obj)
	if err != nil {
		return nil, nil, nil, err
	}
	binding := model.VertexBinding(vertexBuf)
	log.WithFields(log.Fields{
		"vertices": len(obj.Vertices()),
		"bytes":    vertexBuf.Size(),
		"layout":   binding.Layout,
	}).Info("cube uploaded")

	uniformBuf, err := ctx.ReserveBuffer(len(model.UniformBytes(&model.Uniform{})), true)
	if err != nil {
		return nil, nil, nil, err
	}
	slot := model.UniformSlot(uniformBuf)
	if err := uniformBuf.BindToUniformBlock(slot.Index, 0, -1); err != nil {
		return nil, nil, nil, err
	}
	return obj, vertexBuf, uniformBuf, nil
}

// recolor overwrites the color attribute of every vertex in place,
// positions stay untouched.
func recolor(vertexBuf *core.Buffer, count int, tint [4]float32) error {
	chunk := make([]byte, 16*count)
	for i := 0; i < count; i++ {
		for c, v := range tint {
			binary.NativeEndian.PutUint32(chunk[i*16+c*4:], math.Float32bits(v))
		}
	}
	return vertexBuf.WriteChunks(chunk, 12, model.Stride(), count)
}

// buildTextureStack fills a small texture array with per layer test
// patterns and prepares its sampling state.
func buildTextureStack(ctx *core.Context) (*core.TextureArray, error) {
	tex, err := ctx.NewTextureArray(texSize, texSize, texLayers, 4, core.U8, nil)
	if err != nil {
		return nil, err
	}
	for layer := 0; layer < texLayers; layer++ {
		region := core.Region{Layer: layer, Width: texSize, Height: texSize, Layers: 1}
		if err := tex.Write(layerPattern(layer), &region, 1); err != nil {
			return nil, err
		}
	}

	if err := tex.SetAnisotropy(8); err != nil {
		return nil, err
	}
	if err := tex.BuildMipmaps(0, 1000); err != nil {
		return nil, err
	}
	if err := tex.Use(0); err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"texture":    tex.String(),
		"filter":     tex.Filter().Min.String(),
		"anisotropy": tex.Anisotropy(),
	}).Info("texture stack ready")
	return tex, nil
}

// layerPattern paints a checkerboard tinted differently per layer.
func layerPattern(layer int) []byte {
	data := make([]byte, texSize*texSize*4)
	for y := 0; y < texSize; y++ {
		for x := 0; x < texSize; x++ {
			i := (y*texSize + x) * 4
			shade := byte(40)
			if (x/8+y/8)%2 == 0 {
				shade = 220
			}
			data[i+0] = shade
			data[i+1] = byte(64 * layer)
			data[i+2] = byte(255 - 64*layer)
			data[i+3] = 0xff
		}
	}
	return data
}

// runFrames spins the frame clock, streaming a fresh transform block
// every tick while unreferenced scratch buffers pile onto the deferred
// release queue.
func runFrames(ctx *core.Context, cfg demoConfiguration, obj model.Object, uniformBuf *core.Buffer) error {
	clock := core.NewTime(core.TimeConfiguration{FramesPerSecond: cfg.fps})
	defer clock.Stop()

	projection := glm.Perspective(glm.DegToRad(45), 4.0/3.0, 0.1, 100)
	view := glm.LookAtV(glm.Vec3{3, 3, 3}, glm.Vec3{0, 0, 0}, glm.Vec3{0, 1, 0})

	var angle float32
	for frame := 0; frame < cfg.frames; frame++ {
		<-clock.FpsTicker().C

		angle += 0.005
		obj.SetRotation(glm.HomogRotate3D(angle, glm.Vec3{0, 0, 1}))

		uniform := model.Uniform{
			Model:      obj.Position().Mul4(obj.Rotation()),
			View:       view,
			Projection: projection,
		}
		if err := uniformBuf.Orphan(-1); err != nil {
			return err
		}
		if err := uniformBuf.Write(model.UniformBytes(&uniform), 0); err != nil {
			return err
		}

		// scratch copy nobody releases, the collector will
		scratch, err := ctx.ReserveBuffer(uniformBuf.Size(), false)
		if err != nil {
			return err
		}
		if err := ctx.CopyBuffer(scratch, uniformBuf, -1, 0, 0); err != nil {
			return err
		}

		if frame%30 == 29 {
			runtime.GC()
			log.WithFields(log.Fields{
				"frame":     frame,
				"collected": ctx.CollectGarbage(),
				"pending":   ctx.PendingReleases(),
			}).Debug("collection pass")
		}
	}

	runtime.GC()
	time.Sleep(50 * time.Millisecond)
	log.WithFields(log.Fields{"collected": ctx.CollectGarbage()}).Info("final collection")
	return nil
}

// writeMosaic reads every layer back and stitches them side by side
// into a png.
func writeMosaic(tex *core.TextureArray, path string) error {
	data, err := tex.Read(1)
	if err != nil {
		return err
	}

	img := image.NewRGBA(image.Rect(0, 0, texSize*texLayers, texSize))
	layerBytes := texSize * texSize * 4
	rowBytes := texSize * 4
	for layer := 0; layer < texLayers; layer++ {
		for y := 0; y < texSize; y++ {
			src := data[layer*layerBytes+y*rowBytes : layer*layerBytes+(y+1)*rowBytes]
			copy(img.Pix[y*img.Stride+layer*rowBytes:], src)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return err
	}
	log.WithFields(log.Fields{"file": path, "layers": texLayers}).Info("readback written")
	return nil
}

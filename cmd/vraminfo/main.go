package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/gobuffalo/envy"

	"github.com/devblok/vram/driver"
)

func envInt(key string) int {
	num, err := strconv.Atoi(envy.Get(key, "0"))
	if err != nil {
		return 0
	}
	return num
}

func envFloat(key string) float64 {
	num, err := strconv.ParseFloat(envy.Get(key, "0"), 64)
	if err != nil {
		return 0
	}
	return num
}

func main() {
	cfg := driver.SoftConfiguration{
		MaxAnisotropy:      envFloat("VRAM_MAX_ANISOTROPY"),
		MaxTextureSize:     envInt("VRAM_MAX_TEXTURE_SIZE"),
		MaxArrayLayers:     envInt("VRAM_MAX_ARRAY_LAYERS"),
		MaxUniformBindings: envInt("VRAM_MAX_UNIFORM_BINDINGS"),
		MaxStorageBindings: envInt("VRAM_MAX_STORAGE_BINDINGS"),
		MaxTextureUnits:    envInt("VRAM_MAX_TEXTURE_UNITS"),
		MaxImageUnits:      envInt("VRAM_MAX_IMAGE_UNITS"),
	}

	dev := driver.NewSoftDevice(cfg)
	defer dev.Release()

	if bytes, err := json.MarshalIndent(dev.Info(), "", "  "); err == nil {
		fmt.Printf("%s\n", bytes)
	} else {
		panic(err)
	}
}

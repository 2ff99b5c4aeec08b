package main

import (
	"errors"
	"flag"
	"image"
	"image/color"
	"io"
	"os"
	"os/user"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/mmap"

	_ "image/png"

	"github.com/devblok/vram/utility/pak"
)

var (
	author   = flag.String("author", "", "Set the author of the archive, defaults to the current user")
	version  = flag.Int64("version", 1, "Archive version number to create it with")
	extract  = flag.String("e", "", "Extract the archive given")
	compress = flag.String("c", "", "Compress the given file/folder")
	dstPath  = flag.String("f", "out.pak", "Destination file when packing, destination directory when extracting")
	silent   = flag.Bool("s", false, "Silent")
)

func main() {
	flag.Parse()
	if *silent {
		log.SetLevel(log.ErrorLevel)
	}

	if *extract != "" && *compress != "" {
		log.Fatal("only one operation at a time")
	}

	switch {
	case *extract != "":
		if err := extractFiles(); err != nil {
			log.Fatal(err)
		}
	case *compress != "":
		if err := compressFiles(); err != nil {
			log.Fatal(err)
		}
	default:
		flag.PrintDefaults()
	}
}

func authorName() string {
	if *author != "" {
		return *author
	}
	u, err := user.Current()
	if err != nil {
		return "unknown"
	}
	return u.Name
}

func compressFiles() error {
	if _, err := os.Stat(*dstPath); err == nil {
		return errors.New("destination file exists, will not overwrite")
	}

	var filesToCompress []string
	if err := filepath.Walk(*compress, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		filesToCompress = append(filesToCompress, path)
		return nil
	}); err != nil {
		return err
	}

	builder, err := pak.NewBuilder(pak.Header{
		Author:      authorName(),
		DateCreated: time.Now().Unix(),
		Version:     *version,
	})
	if err != nil {
		return err
	}

	for _, ftc := range filesToCompress {
		f, err := os.Open(ftc)
		if err != nil {
			return err
		}
		meta := metaForFile(ftc)
		err = builder.Add(filepath.ToSlash(ftc), f, meta)
		f.Close()
		if err != nil {
			return err
		}
		log.WithFields(log.Fields{"file": ftc, "kind": meta.Kind}).Info("packed")
	}

	dst, err := os.Create(*dstPath)
	if err != nil {
		return err
	}
	defer dst.Close()

	written, err := builder.WriteTo(dst)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{"archive": *dstPath, "bytes": written}).Info("archive written")
	return nil
}

// metaForFile sniffs image payloads so their entries can be sized on
// the device without decoding them first. Everything else packs as a
// plain blob.
func metaForFile(path string) pak.Meta {
	f, err := os.Open(path)
	if err != nil {
		return pak.Meta{Kind: pak.KindBlob}
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return pak.Meta{Kind: pak.KindBlob}
	}
	components := 4
	switch cfg.ColorModel {
	case color.GrayModel, color.Gray16Model:
		components = 1
	}
	return pak.Meta{
		Kind:       pak.KindTexture2D,
		Width:      cfg.Width,
		Height:     cfg.Height,
		Layers:     1,
		Components: components,
		DataType:   "u8",
	}
}

func extractFiles() error {
	r, err := mmap.Open(*extract)
	if err != nil {
		return err
	}
	defer r.Close()

	ar, err := pak.Open(r)
	if err != nil {
		return err
	}

	for _, entry := range ar.Index() {
		local := filepath.FromSlash(entry.Name)
		if !filepath.IsLocal(local) {
			log.WithField("file", entry.Name).Warn("skipping entry with an unsafe path")
			continue
		}
		target := filepath.Join(*dstPath, local)
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}

		src, err := ar.Open(entry.Name)
		if err != nil {
			return err
		}
		dst, err := os.Create(target)
		if err != nil {
			return err
		}
		_, err = io.Copy(dst, src)
		if cerr := dst.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
		log.WithFields(log.Fields{"file": entry.Name, "bytes": entry.Size}).Info("extracted")
	}
	return nil
}

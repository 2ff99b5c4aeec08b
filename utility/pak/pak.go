// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package pak is an api for an lz4 backed resource pack format.
// Its purpose is to move device payloads from disk to an uploadable
// state as fast as possible. The archive itself is never compressed,
// every entry is compressed individually, so (unlike tar) the whole
// index is known up front and any entry can be decompressed straight
// from its place in the file. That costs some space efficiency, but
// makes the format well suited for memory mapped reading. An open
// archive can be read from concurrently.
package pak

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
)

// package errors
var (
	ErrFileFormat = errors.New("corrupted or not a pak archive")
	ErrNotFound   = errors.New("no entry with that name in the archive")
	ErrTempFail   = errors.New("temporary folder or file operation failed")
)

// Magic identifies the start of an archive.
const Magic = "VPK\x00"

// Sizes relevant to the header of file
const (
	MagicLength            = 4
	HeaderSizeNumberLength = 16
)

// Entry kinds understood by resource uploads.
const (
	KindBlob         = "blob"
	KindBuffer       = "buffer"
	KindTexture2D    = "texture2d"
	KindTextureArray = "texture_array"
)

// Meta describes the device object an entry unpacks into. Plain
// file payloads leave it zeroed.
type Meta struct {
	Kind       string
	Width      int
	Height     int
	Layers     int
	Components int
	DataType   string
}

// IndexEntry is info for one file in the file index. Offset counts
// from the start of the data section, not the start of the archive.
type IndexEntry struct {
	Name           string
	Offset         int64
	Size           int64
	CompressedSize int64
	Meta           Meta
}

// Header is the file header for pak files.
type Header struct {
	Author      string
	DateCreated int64
	Version     int64
	Index       []IndexEntry
}

func int64ToBinary(num int64) []byte {
	buf := make([]byte, HeaderSizeNumberLength)
	binary.PutVarint(buf, num)
	return buf
}

func binaryToint64(bts []byte) (int64, error) {
	num, err := binary.ReadVarint(bytes.NewReader(bts))
	if err != nil {
		return 0, err
	}
	return num, nil
}

func gobEncode(data any) ([]byte, error) {
	var encoded bytes.Buffer
	enc := gob.NewEncoder(&encoded)
	if err := enc.Encode(data); err != nil {
		return nil, err
	}
	return encoded.Bytes(), nil
}

func gobDecode(obj any, bts []byte) error {
	dec := gob.NewDecoder(bytes.NewBuffer(bts))
	return dec.Decode(obj)
}

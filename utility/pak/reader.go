// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package pak

import (
	"fmt"
	"io"

	"github.com/pierrec/lz4"
)

// Open opens the pak archive from r. It will also check
// if the file is actually a pak archive, will return an error
// when file incorrect.
func Open(r io.ReaderAt) (*Archive, error) {
	magic := make([]byte, MagicLength)
	if num, err := r.ReadAt(magic, 0); err != nil {
		return nil, err
	} else if num < MagicLength || string(magic) != Magic {
		return nil, ErrFileFormat
	}

	headerSizeBytes := make([]byte, HeaderSizeNumberLength)
	if num, err := r.ReadAt(headerSizeBytes, MagicLength); err != nil {
		return nil, err
	} else if num < HeaderSizeNumberLength {
		return nil, ErrFileFormat
	}

	headerSize, err := binaryToint64(headerSizeBytes)
	if err != nil || headerSize <= 0 {
		return nil, ErrFileFormat
	}

	headerBytes := make([]byte, headerSize)
	if num, err := r.ReadAt(headerBytes, MagicLength+HeaderSizeNumberLength); err != nil {
		return nil, err
	} else if int64(num) < headerSize {
		return nil, ErrFileFormat
	}

	var header Header
	if err := gobDecode(&header, headerBytes); err != nil {
		return nil, ErrFileFormat
	}

	ar := Archive{
		reader:    r,
		header:    header,
		dataStart: MagicLength + HeaderSizeNumberLength + headerSize,
		lookup:    make(map[string]IndexEntry, len(header.Index)),
	}
	for _, entry := range header.Index {
		ar.lookup[entry.Name] = entry
	}
	return &ar, nil
}

// Archive provides concurrent io for a pak file, and can provide
// an io.Reader for each entry separately to perform actions on.
type Archive struct {
	reader    io.ReaderAt
	header    Header
	dataStart int64
	lookup    map[string]IndexEntry
}

// Header returns the archive header as written by the builder.
func (a *Archive) Header() Header {
	return a.header
}

// Index returns a copy of the archive's entry index.
func (a *Archive) Index() []IndexEntry {
	return append([]IndexEntry(nil), a.header.Index...)
}

// Entry returns index info for a single named entry.
func (a *Archive) Entry(name string) (IndexEntry, bool) {
	entry, ok := a.lookup[name]
	return entry, ok
}

// ReadAll returns the entire contents of a file with a given name
func (a *Archive) ReadAll(name string) ([]byte, error) {
	r, err := a.Open(name)
	if err != nil {
		return nil, err
	}
	data := make([]byte, r.Size())
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, err
	}
	return data, nil
}

// Open returns a Reader for a file in the Archive
func (a *Archive) Open(name string) (*Reader, error) {
	entry, ok := a.lookup[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	section := io.NewSectionReader(a.reader, a.dataStart+entry.Offset, entry.CompressedSize)
	return &Reader{
		entry: entry,
		lz:    lz4.NewReader(section),
	}, nil
}

// Reader is a reader for a single file in an Archive.
// Abstracts away the location that needs to be known.
type Reader struct {
	entry IndexEntry
	lz    *lz4.Reader
}

// Read reads already decompressed data
func (r *Reader) Read(p []byte) (int, error) {
	return r.lz.Read(p)
}

// Size returns the decompressed size of the entry.
func (r *Reader) Size() int64 {
	return r.entry.Size
}

// Meta returns the device object description the entry was
// packed with.
func (r *Reader) Meta() Meta {
	return r.entry.Meta
}

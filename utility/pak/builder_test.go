// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package pak

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestAddAndWrite(t *testing.T) {
	builder, err := NewBuilder(Header{
		Author:      "devblok",
		DateCreated: time.Now().Unix(),
		Version:     1,
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := builder.Add("test", strings.NewReader("idunvovkjnreovmegihjbrqlkmfrjnb"), Meta{}); err != nil {
		t.Error(err)
	}
	if err := builder.Add("test2", strings.NewReader("idunvovkjnreovmsdvwrvnervnreegihjbrqlkmfrjnb"), Meta{Kind: KindBuffer}); err != nil {
		t.Error(err)
	}

	if len(builder.files) != 2 {
		t.Error("incorrect number of files present")
	}

	var buf bytes.Buffer
	num, err := builder.WriteTo(&buf)
	if err != nil {
		t.Error(err)
	}
	if num != int64(buf.Len()) {
		t.Errorf("reported %d bytes written, buffer holds %d", num, buf.Len())
	}
	if len(builder.files) != 0 {
		t.Error("staged files survive WriteTo")
	}
}

func TestBuilderReuse(t *testing.T) {
	builder, err := NewBuilder(Header{Version: 1})
	if err != nil {
		t.Fatal(err)
	}
	if err := builder.Add("first", strings.NewReader("payload one"), Meta{}); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if _, err := builder.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}

	if err := builder.Add("second", strings.NewReader("payload two"), Meta{}); err != nil {
		t.Fatal(err)
	}
	buf.Reset()
	if _, err := builder.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}

	ar, err := Open(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	index := ar.Index()
	if len(index) != 1 || index[0].Name != "second" {
		t.Errorf("reused builder produced index %+v", index)
	}
}

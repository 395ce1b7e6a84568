package apkcheck

import (
	"bytes"
	"encoding/binary"
	"errors"
	"reflect"
	"strings"
	"testing"
	"unicode/utf16"
)

// Chunk types and value types of the compiled XML format
const (
	chunkStringPool   = 0x0001
	chunkXML          = 0x0003
	chunkStartElement = 0x0102
	chunkEndElement   = 0x0103

	typeString = 0x03
	typeIntDec = 0x10

	noRef = 0xFFFFFFFF
)

type axmlAttr struct {
	name     string
	str      string
	intValue uint32
	isInt    bool
}

// axmlWriter assembles a compiled manifest: one string pool followed by start and
// end element chunks. Namespaces are left out.
type axmlWriter struct {
	strs  []string
	index map[string]uint32
	body  bytes.Buffer
}

func newAXMLWriter() *axmlWriter {
	return &axmlWriter{index: map[string]uint32{}}
}

func (w *axmlWriter) ref(s string) uint32 {
	if i, ok := w.index[s]; ok {
		return i
	}
	i := uint32(len(w.strs))
	w.strs = append(w.strs, s)
	w.index[s] = i
	return i
}

func le(buf *bytes.Buffer, vals ...any) {
	for _, v := range vals {
		_ = binary.Write(buf, binary.LittleEndian, v)
	}
}

func (w *axmlWriter) start(name string, attrs ...axmlAttr) {
	le(&w.body, uint16(chunkStartElement), uint16(16), uint32(16+20+20*len(attrs)))
	le(&w.body, uint32(0), uint32(noRef))
	le(&w.body, uint32(noRef), w.ref(name), uint16(20), uint16(20), uint16(len(attrs)),
		uint16(0), uint16(0), uint16(0))
	for _, a := range attrs {
		raw, dataType, data := uint32(noRef), uint8(typeIntDec), a.intValue
		if !a.isInt {
			raw = w.ref(a.str)
			dataType, data = typeString, raw
		}
		le(&w.body, uint32(noRef), w.ref(a.name), raw, uint16(8), uint8(0), dataType, data)
	}
}

func (w *axmlWriter) end(name string) {
	le(&w.body, uint16(chunkEndElement), uint16(16), uint32(24))
	le(&w.body, uint32(0), uint32(noRef))
	le(&w.body, uint32(noRef), w.ref(name))
}

// encode returns the whole document with a UTF-16 string pool
func (w *axmlWriter) encode() []byte {
	var data bytes.Buffer
	offsets := make([]uint32, len(w.strs))
	for i, s := range w.strs {
		offsets[i] = uint32(data.Len())
		units := utf16.Encode([]rune(s))
		le(&data, uint16(len(units)), units, uint16(0))
	}
	for data.Len()%4 != 0 {
		data.WriteByte(0)
	}

	var pool bytes.Buffer
	headerSize := 28
	stringsStart := headerSize + 4*len(w.strs)
	le(&pool, uint16(chunkStringPool), uint16(headerSize), uint32(stringsStart+data.Len()))
	le(&pool, uint32(len(w.strs)), uint32(0), uint32(0), uint32(stringsStart), uint32(0))
	le(&pool, offsets)
	pool.Write(data.Bytes())

	var doc bytes.Buffer
	le(&doc, uint16(chunkXML), uint16(8), uint32(8+pool.Len()+w.body.Len()))
	doc.Write(pool.Bytes())
	doc.Write(w.body.Bytes())
	return doc.Bytes()
}

func walletManifest() []byte {
	w := newAXMLWriter()
	w.start("manifest",
		axmlAttr{name: "package", str: "com.example.wallet"},
		axmlAttr{name: "versionCode", intValue: 42, isInt: true},
		axmlAttr{name: "versionName", str: "2.1"})
	for _, p := range []string{"android.permission.SEND_SMS", "android.permission.READ_CONTACTS", "android.permission.INTERNET"} {
		w.start("uses-permission", axmlAttr{name: "name", str: p})
		w.end("uses-permission")
	}
	w.start("application", axmlAttr{name: "label", str: "Wallet"})
	w.start("activity", axmlAttr{name: "name", str: ".MainActivity"})
	w.end("activity")
	w.start("receiver", axmlAttr{name: "name", str: ".SmsReceiver"})
	w.end("receiver")
	w.end("application")
	w.end("manifest")
	return w.encode()
}

func TestBinaryManifest(t *testing.T) {
	t.Parallel()

	data := walletManifest()
	if !bytes.HasPrefix(data, axmlMagic) {
		t.Fatalf("expected the document to start with the AXML magic, got % x", data[:4])
	}

	text, err := decodeManifest(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(text, "<manifest") {
		t.Fatalf("expected rendered manifest markup, got %q", text)
	}

	res := analyzeBytes(buildAPK(t, map[string][]byte{"AndroidManifest.xml": data}))
	m := res.Manifest
	if m.PackageName != "com.example.wallet" {
		t.Errorf("expected package com.example.wallet, got %q", m.PackageName)
	}
	if m.VersionCode != 42 {
		t.Errorf("expected version code 42, got %d", m.VersionCode)
	}
	if m.VersionName != "2.1" || m.AppName != "Wallet" {
		t.Errorf("expected version 2.1 and label Wallet, got %q %q", m.VersionName, m.AppName)
	}
	want := []string{"android.permission.SEND_SMS", "android.permission.READ_CONTACTS", "android.permission.INTERNET"}
	if !reflect.DeepEqual(m.Permissions, want) {
		t.Errorf("expected permissions %v, got %v", want, m.Permissions)
	}
	if res.Features.Get(FeatActivityCount) != 1 || res.Features.Get(FeatReceiverCount) != 1 {
		t.Errorf("unexpected component counts %v", res.Features.Values())
	}
	if len(res.Issues) > 0 && strings.HasPrefix(res.Issues[0], "Error analyzing APK") {
		t.Fatalf("expected the binary manifest to be analyzed, got %v", res.Issues)
	}
}

func TestOversizedManifestFailsClosed(t *testing.T) {
	t.Parallel()

	head := `<manifest package="com.example.big" android:versionCode="1"><application><activity/></application>`
	tail := `</manifest>`

	tests := []struct {
		name   string
		size   int
		tooBig bool
	}{
		{"at the cap", maxManifestBytes, false},
		{"past the cap", maxManifestBytes + 1, true},
	}
	for _, tt := range tests {
		manifest := head + strings.Repeat(" ", tt.size-len(head)-len(tail)) + tail
		apk := buildAPK(t, map[string][]byte{"AndroidManifest.xml": []byte(manifest)})

		_, err := manifestText(bytes.NewReader(apk), int64(len(apk)))
		if got := errors.Is(err, ErrManifestTooLarge); got != tt.tooBig {
			t.Errorf("%s: expected too large %v, got %v", tt.name, tt.tooBig, err)
		}

		res := analyzeBytes(apk)
		if tt.tooBig && (res.RiskScore != 100 || !res.Verdict) {
			t.Errorf("%s: expected fail-closed result, got %d %v", tt.name, res.RiskScore, res.Verdict)
		}
		if !tt.tooBig && res.Manifest.PackageName != "com.example.big" {
			t.Errorf("%s: expected the manifest to parse, got %+v", tt.name, res.Manifest)
		}
	}
}

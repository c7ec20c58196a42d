package jxf

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

func zstdBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatal(err)
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil)
}

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func brotliBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	bw := brotli.NewWriter(&buf)
	if _, err := bw.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := bw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDecompressResolver(t *testing.T) {
	plain := bytes.Repeat(triangleBytes, 50)
	r := DecompressResolver{Next: MapResolver{
		"plain.bin":   plain,
		"mesh.zst":    zstdBytes(t, plain),
		"mesh.gz":     gzipBytes(t, plain),
		"mesh.bin.br": brotliBytes(t, plain),
	}}

	for _, uri := range []string{"plain.bin", "mesh.zst", "mesh.gz", "mesh.bin.br"} {
		got, err := r.Resolve(context.Background(), uri)
		if err != nil {
			t.Errorf("Resolve(%s) error = %v", uri, err)
			continue
		}
		if !bytes.Equal(got, plain) {
			t.Errorf("Resolve(%s) = %d bytes, want the %d plain bytes", uri, len(got), len(plain))
		}
	}
}

func TestDecompressResolverLimit(t *testing.T) {
	plain := make([]byte, 4096)
	r := DecompressResolver{
		Next: MapResolver{
			"a.zst": zstdBytes(t, plain),
			"a.gz":  gzipBytes(t, plain),
			"a.br":  brotliBytes(t, plain),
		},
		MaxSize: 1024,
	}
	for _, uri := range []string{"a.zst", "a.gz", "a.br"} {
		if _, err := r.Resolve(context.Background(), uri); !errors.Is(err, ErrTooLarge) {
			t.Errorf("Resolve(%s) error = %v, want ErrTooLarge", uri, err)
		}
	}
}

func TestDecompressResolverCorrupt(t *testing.T) {
	bad := append([]byte{0x1f, 0x8b}, "not gzip"...)
	r := DecompressResolver{Next: MapResolver{"x.gz": bad}}
	if _, err := r.Resolve(context.Background(), "x.gz"); err == nil {
		t.Error("corrupt gzip resolved without error")
	}
}

func TestDecompressResolverPassesErrors(t *testing.T) {
	r := DecompressResolver{Next: MapResolver{}}
	if _, err := r.Resolve(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestCompressedMesh(t *testing.T) {
	m := triangleMesh()
	m.PositionBuffer.URI = "tri.zst"
	r := DecompressResolver{Next: MapResolver{"tri.zst": zstdBytes(t, triangleBytes)}}

	g, err := AssembleMesh(context.Background(), m, r)
	if err != nil {
		t.Fatal(err)
	}
	if g.Positions[2] != Pt(0, 1, 0) {
		t.Errorf("positions = %v", g.Positions)
	}
}

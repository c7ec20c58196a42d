package jxf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// DefaultMaxDecompressed bounds the inflated size of one buffer.
const DefaultMaxDecompressed = 1 << 30

// ErrTooLarge is returned when a compressed buffer inflates past the limit.
var ErrTooLarge = errors.New("jxf: decompressed buffer exceeds limit")

var (
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	gzipMagic = []byte{0x1f, 0x8b}
)

// DecompressResolver inflates compressed buffers returned by Next.
//
// zstd and gzip payloads are recognized by their magic bytes. Brotli has no
// magic number, so it is applied to uris ending in ".br". Anything else is
// returned unchanged. Binary references address the inflated bytes.
type DecompressResolver struct {
	Next BufferResolver

	// MaxSize bounds the inflated size; 0 means DefaultMaxDecompressed.
	MaxSize int64
}

// Resolve fetches uri from Next and inflates it if compressed.
func (d DecompressResolver) Resolve(ctx context.Context, uri string) ([]byte, error) {
	b, err := d.Next.Resolve(ctx, uri)
	if err != nil {
		return nil, err
	}

	limit := d.MaxSize
	if limit <= 0 {
		limit = DefaultMaxDecompressed
	}

	var out []byte
	switch {
	case bytes.HasPrefix(b, zstdMagic):
		out, err = inflateZstd(b, limit)
	case bytes.HasPrefix(b, gzipMagic):
		out, err = inflateGzip(b, limit)
	case strings.HasSuffix(uri, ".br"):
		out, err = readLimited(brotli.NewReader(bytes.NewReader(b)), limit)
	default:
		return b, nil
	}
	if err != nil {
		return nil, fmt.Errorf("decompress %s: %w", uri, err)
	}
	Logger().Debug("jxf: inflated buffer", "uri", uri, "compressed", len(b), "bytes", len(out))
	return out, nil
}

func inflateZstd(b []byte, limit int64) ([]byte, error) {
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1), zstd.WithDecoderMaxMemory(uint64(limit)))
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	out, err := dec.DecodeAll(b, nil)
	if errors.Is(err, zstd.ErrDecoderSizeExceeded) || errors.Is(err, zstd.ErrWindowSizeExceeded) || int64(len(out)) > limit {
		return nil, ErrTooLarge
	}
	return out, err
}

func inflateGzip(b []byte, limit int64) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return readLimited(zr, limit)
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	out, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(out)) > limit {
		return nil, ErrTooLarge
	}
	return out, nil
}

package jxf

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// BufferResolver supplies the bytes behind a binary reference uri. Parsing,
// validation and evaluation perform no I/O of their own; every byte of
// binary data comes through a resolver.
//
// Resolve may block. It should honor ctx and must be safe for concurrent
// use when the resolver is shared by EvaluateAll.
type BufferResolver interface {
	Resolve(ctx context.Context, uri string) ([]byte, error)
}

// ResolverFunc adapts a function to BufferResolver.
type ResolverFunc func(ctx context.Context, uri string) ([]byte, error)

// Resolve calls f(ctx, uri).
func (f ResolverFunc) Resolve(ctx context.Context, uri string) ([]byte, error) {
	return f(ctx, uri)
}

// ErrNotFound is returned by the bundled resolvers for an unknown uri.
var ErrNotFound = errors.New("jxf: buffer not found")

// MapResolver serves buffers from memory, keyed by uri. It must not be
// modified while in use.
type MapResolver map[string][]byte

// Resolve returns the buffer stored under uri.
func (m MapResolver) Resolve(ctx context.Context, uri string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, ok := m[uri]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, uri)
	}
	return b, nil
}

// DataURIResolver decodes RFC 2397 "data:" URIs in place and hands every
// other uri to Fallback. A nil Fallback fails such uris with ErrNotFound.
type DataURIResolver struct {
	Fallback BufferResolver
}

// Resolve decodes a data uri or delegates to the fallback.
func (d DataURIResolver) Resolve(ctx context.Context, uri string) ([]byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		if d.Fallback == nil {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, uri)
		}
		return d.Fallback.Resolve(ctx, uri)
	}
	return decodeDataURI(rest)
}

// decodeDataURI decodes the part of a data uri after "data:".
func decodeDataURI(s string) ([]byte, error) {
	meta, payload, ok := strings.Cut(s, ",")
	if !ok {
		return nil, errors.New("data uri has no ',' separator")
	}
	if strings.HasSuffix(meta, ";base64") {
		// Accept padded and unpadded payloads.
		payload = strings.TrimRight(payload, "=")
		b, err := base64.RawStdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("data uri: %w", err)
		}
		return b, nil
	}
	b, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("data uri: %w", err)
	}
	return []byte(b), nil
}

// DirResolver serves uris as slash-separated paths relative to Dir.
// Paths that would leave Dir, including through symlinks, are rejected.
type DirResolver struct {
	Dir string
}

// Resolve reads the file named by uri.
func (d DirResolver) Resolve(ctx context.Context, uri string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	root, err := os.OpenRoot(d.Dir)
	if err != nil {
		return nil, err
	}
	defer root.Close()

	f, err := root.Open(filepath.FromSlash(uri))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, uri)
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

package jxf

import (
	"bytes"
	"slices"

	"github.com/gogpu/jxf/internal/bufread"
)

// FormatTag is the required value of Asset.Format.
const FormatTag = "JXF"

// Document is a parsed JXF document.
//
// A Document is immutable value data: the codec never modifies one after
// Parse returns it, and extension handlers return a new Document instead of
// editing their input. Callers must not modify a Document that is being
// evaluated concurrently.
type Document struct {
	Asset  Asset
	Units  string
	Layers []Layer

	// Entities in authored draw order.
	Entities []Entity

	Extensions         map[string]RawValue
	ExtensionsUsed     []string
	ExtensionsRequired []string
	Metadata           RawValue
}

// Asset identifies the format and the producing tool.
type Asset struct {
	Format    string `json:"format"`
	Version   string `json:"version"`
	Generator string `json:"generator,omitempty"`
}

// Layer groups entities for presentation. Layers carry no geometry.
type Layer struct {
	ID      string `json:"id"`
	Name    string `json:"name,omitempty"`
	Color   string `json:"color,omitempty"`
	Visible *bool  `json:"visible,omitempty"`
}

// IsVisible applies the default-visible rule.
func (l Layer) IsVisible() bool {
	return l.Visible == nil || *l.Visible
}

// Layer returns the layer with the given id.
func (d *Document) Layer(id string) (Layer, bool) {
	for _, l := range d.Layers {
		if l.ID == id {
			return l, true
		}
	}
	return Layer{}, false
}

// Entity returns the first entity with the given id.
func (d *Document) Entity(id string) (Entity, bool) {
	for _, e := range d.Entities {
		if e.Header().ID == id {
			return e, true
		}
	}
	return nil, false
}

// UsesExtension reports whether name is declared in ExtensionsUsed.
func (d *Document) UsesExtension(name string) bool {
	return slices.Contains(d.ExtensionsUsed, name)
}

// RequiresExtension reports whether name is declared in ExtensionsRequired.
func (d *Document) RequiresExtension(name string) bool {
	return slices.Contains(d.ExtensionsRequired, name)
}

// Clone returns a copy of d whose slices and maps can be replaced without
// affecting d. Entities themselves are shared; handlers that change an
// entity must replace it with a new value.
func (d *Document) Clone() *Document {
	c := *d
	c.Layers = slices.Clone(d.Layers)
	c.Entities = slices.Clone(d.Entities)
	c.ExtensionsUsed = slices.Clone(d.ExtensionsUsed)
	c.ExtensionsRequired = slices.Clone(d.ExtensionsRequired)
	if d.Extensions != nil {
		c.Extensions = make(map[string]RawValue, len(d.Extensions))
		for k, v := range d.Extensions {
			c.Extensions[k] = v
		}
	}
	return &c
}

// RawValue is an uninterpreted JSON value. jxf carries extension payloads,
// entity attributes and document metadata through untouched and never
// inspects their contents.
type RawValue []byte

// MarshalJSON returns the raw bytes, or null when empty.
func (r RawValue) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return r, nil
}

// UnmarshalJSON stores a copy of data. A JSON null is stored as empty.
func (r *RawValue) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*r = nil
		return nil
	}
	*r = append((*r)[:0], data...)
	return nil
}

// ComponentType is the wire name of a binary scalar type.
type ComponentType string

// Supported component types.
const (
	Int8    ComponentType = "int8"
	Uint8   ComponentType = "uint8"
	Int16   ComponentType = "int16"
	Uint16  ComponentType = "uint16"
	Int32   ComponentType = "int32"
	Uint32  ComponentType = "uint32"
	Float32 ComponentType = "float32"
	Float64 ComponentType = "float64"
)

// Size returns the size of one component in bytes, or 0 if the type is not
// supported.
func (c ComponentType) Size() int {
	t, _ := bufread.ParseComponentType(string(c))
	return t.Size()
}

// BinaryReference locates a typed numeric array stored outside the
// document body.
type BinaryReference struct {
	URI           string        `json:"uri"`
	ByteOffset    int64         `json:"byteOffset"`
	ByteLength    int64         `json:"byteLength"`
	ComponentType ComponentType `json:"componentType"`
	Components    int           `json:"components"`
}

func (r BinaryReference) layout() bufread.Layout {
	t, _ := bufread.ParseComponentType(string(r.ComponentType))
	return bufread.Layout{
		Offset:     r.ByteOffset,
		Length:     r.ByteLength,
		Type:       t,
		Components: r.Components,
	}
}

// Check verifies the reference's internal consistency without reading any
// bytes: byteLength must be elementCount × components × componentSize.
func (r BinaryReference) Check() error {
	return r.layout().Check()
}

// ElementCount returns the number of logical elements, or 0 when the
// reference is malformed.
func (r BinaryReference) ElementCount() int {
	return r.layout().ElementCount()
}

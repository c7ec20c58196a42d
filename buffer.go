package jxf

import (
	"fmt"

	"github.com/gogpu/jxf/internal/bufread"
)

// Elements is a decoded binary array: Len() logical elements of Components
// scalars each, widened to float64.
type Elements struct {
	Components int
	Values     []float64
}

// Len returns the number of logical elements.
func (e Elements) Len() int {
	if e.Components == 0 {
		return 0
	}
	return len(e.Values) / e.Components
}

// At returns the components of element i. The slice aliases Values.
func (e Elements) At(i int) []float64 {
	return e.Values[i*e.Components : (i+1)*e.Components : (i+1)*e.Components]
}

// ReadBuffer decodes the range of data described by ref. The bytes are
// little-endian. A reference that addresses bytes outside data, or whose
// byteLength is not a whole number of elements, fails with
// ErrMalformedBinaryReference; ReadBuffer never reads outside data.
func ReadBuffer(data []byte, ref BinaryReference) (Elements, error) {
	vals, err := bufread.Read(data, ref.layout())
	if err != nil {
		return Elements{}, fmt.Errorf("%w (uri %q)", err, ref.URI)
	}
	return Elements{Components: ref.Components, Values: vals}, nil
}

package server

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/gogpu/jxf"
	"github.com/gogpu/jxf/blobstore"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store, err := blobstore.Open(filepath.Join(t.TempDir(), "buffers.db"))
	if err != nil {
		t.Fatalf("blobstore.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	cfg := Config{
		BodyLimit:   1 << 20,
		CacheBudget: 1 << 20,
		Sampling:    jxf.FixedCount(4),
	}
	return New(cfg, store, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func do(t *testing.T, s *Server, method, target string, body []byte) (*http.Response, []byte) {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	resp, err := s.App().Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, target, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, data
}

const circleDoc = `{
  "asset": {"format": "JXF", "version": "1.0"},
  "units": "mm",
  "layers": [{"id": "0"}],
  "entities": [
    {"type": "arc", "id": "c", "layer": "0", "center": [0, 0], "radius": 1},
    {"type": "polyline", "id": "p", "points": [[0,0],[10,0]], "thickness": 2}
  ]
}`

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/health/live", "/health/ready"} {
		resp, _ := do(t, s, http.MethodGet, path, nil)
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s status = %d, want 200", path, resp.StatusCode)
		}
	}
}

func TestRequestID(t *testing.T) {
	s := newTestServer(t)

	resp, _ := do(t, s, http.MethodGet, "/health/live", nil)
	if resp.Header.Get(headerRequestID) == "" {
		t.Error("response has no request id")
	}

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set(headerRequestID, "abc")
	resp, err := s.App().Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if got := resp.Header.Get(headerRequestID); got != "abc" {
		t.Errorf("request id = %q, want caller's %q", got, "abc")
	}
}

func TestValidateEndpoint(t *testing.T) {
	s := newTestServer(t)

	doc := strings.Replace(circleDoc, `"layer": "0"`, `"layer": "missing"`, 1)
	resp, body := do(t, s, http.MethodPost, "/v1/validate", []byte(doc))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", resp.StatusCode, body)
	}

	var got validateResponse
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatal(err)
	}
	if got.Valid || len(got.Issues) != 1 || got.Issues[0].Kind != jxf.IssueDanglingLayerRef {
		t.Errorf("validate = %+v, want one DanglingLayerRef", got)
	}
}

func TestValidateParseError(t *testing.T) {
	s := newTestServer(t)

	resp, body := do(t, s, http.MethodPost, "/v1/validate", []byte(`{"asset": {"format": "XYZ"}}`))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	var got errorResponse
	json.Unmarshal(body, &got)
	if got.Path != "asset.format" {
		t.Errorf("error path = %q, want %q", got.Path, "asset.format")
	}
}

func TestEvaluateEndpoint(t *testing.T) {
	s := newTestServer(t)

	resp, body := do(t, s, http.MethodPost, "/v1/evaluate", []byte(circleDoc))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", resp.StatusCode, body)
	}

	var got evaluateResponse
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatal(err)
	}
	if len(got.Entities) != 2 {
		t.Fatalf("got %d entities, want 2", len(got.Entities))
	}
	arc := got.Entities[0]
	if len(arc.Points) != 5 || !arc.Closed {
		t.Errorf("arc = %d points closed=%v, want 5 points closed", len(arc.Points), arc.Closed)
	}
	line := got.Entities[1]
	if len(line.Outline) != 1 {
		t.Errorf("polyline outline has %d rings, want 1", len(line.Outline))
	}
}

func TestEvaluateSamplingOverride(t *testing.T) {
	s := newTestServer(t)

	_, body := do(t, s, http.MethodPost, "/v1/evaluate?mode=fixedCount&value=8", []byte(circleDoc))
	var got evaluateResponse
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatal(err)
	}
	if n := len(got.Entities[0].Points); n != 9 {
		t.Errorf("arc has %d points, want 9", n)
	}

	resp, _ := do(t, s, http.MethodPost, "/v1/evaluate?mode=fixedCount&value=0", []byte(circleDoc))
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid sampling status = %d, want 400", resp.StatusCode)
	}
}

func TestEvaluateUnsupportedRequiredExtension(t *testing.T) {
	s := newTestServer(t)

	doc := strings.Replace(circleDoc, `"units": "mm",`,
		`"units": "mm", "extensionsUsed": ["ACME_x"], "extensionsRequired": ["ACME_x"],`, 1)
	resp, _ := do(t, s, http.MethodPost, "/v1/evaluate", []byte(doc))
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", resp.StatusCode)
	}
}

func float32Triples(vals ...float32) []byte {
	var buf bytes.Buffer
	for _, v := range vals {
		binary.Write(&buf, binary.LittleEndian, math.Float32bits(v))
	}
	return buf.Bytes()
}

func TestEvaluateMeshFromStoredBuffer(t *testing.T) {
	s := newTestServer(t)

	data := float32Triples(0, 0, 0, 1, 0, 0, 0, 1, 0)
	resp, _ := do(t, s, http.MethodPut, "/v1/buffers/meshes/tri.bin", data)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("PUT status = %d, want 201", resp.StatusCode)
	}

	doc := `{
  "asset": {"format": "JXF", "version": "1.0"}, "units": "m",
  "entities": [{"type": "mesh", "id": "m", "vertexCount": 3, "faceCount": 1,
    "indices": [0, 1, 2],
    "positionBuffer": {"uri": "meshes/tri.bin", "byteOffset": 0, "byteLength": 36,
      "componentType": "float32", "components": 3}}]
}`
	resp, body := do(t, s, http.MethodPost, "/v1/evaluate", []byte(doc))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	var got evaluateResponse
	json.Unmarshal(body, &got)
	m := got.Entities[0]
	if m.Error != "" || len(m.Triangles) != 1 || len(m.Points) != 3 {
		t.Errorf("mesh = %+v, want 3 points and 1 triangle", m)
	}
}

func TestBufferLifecycle(t *testing.T) {
	s := newTestServer(t)

	do(t, s, http.MethodPut, "/v1/buffers/a.bin", []byte{1, 2, 3})

	resp, body := do(t, s, http.MethodGet, "/v1/buffers/a.bin", nil)
	if resp.StatusCode != http.StatusOK || !bytes.Equal(body, []byte{1, 2, 3}) {
		t.Errorf("GET = %d %v, want 200 [1 2 3]", resp.StatusCode, body)
	}

	_, body = do(t, s, http.MethodGet, "/v1/buffers", nil)
	if !strings.Contains(string(body), `"a.bin"`) {
		t.Errorf("list = %s, want a.bin", body)
	}

	resp, _ = do(t, s, http.MethodDelete, "/v1/buffers/a.bin", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("DELETE status = %d, want 204", resp.StatusCode)
	}
	resp, _ = do(t, s, http.MethodGet, "/v1/buffers/a.bin", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET after delete = %d, want 404", resp.StatusCode)
	}
}

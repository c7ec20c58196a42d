package server

import (
	"errors"
	"net/url"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/gogpu/jxf"
	"github.com/gogpu/jxf/blobstore"
)

type errorResponse struct {
	Error string `json:"error"`
	Path  string `json:"path,omitempty"`
}

func fail(c fiber.Ctx, status int, err error) error {
	resp := errorResponse{Error: err.Error()}
	var pe *jxf.ParseError
	if errors.As(err, &pe) {
		resp.Path = pe.Path
	}
	return c.Status(status).JSON(resp)
}

type issueResponse struct {
	Kind    jxf.IssueKind `json:"kind"`
	Path    string        `json:"path"`
	Entity  int           `json:"entity"`
	Message string        `json:"message"`
	Fatal   bool          `json:"fatal,omitempty"`
}

func issuesResponse(issues jxf.Issues) []issueResponse {
	out := make([]issueResponse, len(issues))
	for i, is := range issues {
		out[i] = issueResponse{
			Kind:    is.Kind,
			Path:    is.Path,
			Entity:  is.Entity,
			Message: is.Message,
			Fatal:   is.Fatal(),
		}
	}
	return out
}

type validateResponse struct {
	Valid  bool            `json:"valid"`
	Fatal  bool            `json:"fatal"`
	Issues []issueResponse `json:"issues"`
}

func (s *Server) validate(c fiber.Ctx) error {
	doc, err := s.codec.Parse(c.Body())
	if err != nil {
		return fail(c, fiber.StatusBadRequest, err)
	}
	issues := s.codec.Validate(doc)
	return c.JSON(validateResponse{
		Valid:  len(issues) == 0,
		Fatal:  issues.Fatal(),
		Issues: issuesResponse(issues),
	})
}

type boundsResponse struct {
	Min jxf.Point `json:"min"`
	Max jxf.Point `json:"max"`
}

type entityResponse struct {
	ID         string          `json:"id"`
	Kind       jxf.EntityKind  `json:"kind"`
	Closed     bool            `json:"closed,omitempty"`
	Thickness  float64         `json:"thickness,omitempty"`
	Points     []jxf.Point     `json:"points,omitempty"`
	Triangles  [][3]int        `json:"triangles,omitempty"`
	Unresolved bool            `json:"unresolved,omitempty"`
	Outline    []jxf.Ring      `json:"outline,omitempty"`
	Bounds     *boundsResponse `json:"bounds,omitempty"`
	Error      string          `json:"error,omitempty"`
}

type evaluateResponse struct {
	Sampling jxf.SampleConfig `json:"sampling"`
	Entities []entityResponse `json:"entities"`
	Issues   []issueResponse  `json:"issues"`
}

// evaluate samples every entity of the posted document. The optional
// query parameters mode and value override the configured sampling.
func (s *Server) evaluate(c fiber.Ctx) error {
	codec, err := s.codecFor(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, err)
	}

	doc, issues, err := codec.Open(c.Body())
	switch {
	case errors.Is(err, jxf.ErrUnsupportedRequiredExtension):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(validateResponse{
			Fatal:  true,
			Issues: issuesResponse(issues),
		})
	case err != nil:
		return fail(c, fiber.StatusBadRequest, err)
	}

	res, err := codec.EvaluateAll(c.Context(), doc, nil)
	if err != nil {
		return fail(c, fiber.StatusUnprocessableEntity, err)
	}

	resp := evaluateResponse{
		Sampling: codec.Sampling(),
		Entities: make([]entityResponse, len(doc.Entities)),
		Issues:   issuesResponse(issues),
	}
	for i, e := range doc.Entities {
		er := entityResponse{ID: e.Header().ID, Kind: e.Kind()}
		if err := res.Errors[i]; err != nil {
			er.Error = err.Error()
			resp.Entities[i] = er
			continue
		}
		g := res.Geometry[i]
		er.Closed = g.Closed
		er.Thickness = g.Thickness
		er.Points = g.Collect()
		if b := g.Bounds(); !b.IsEmpty() {
			er.Bounds = &boundsResponse{Min: b.Min, Max: b.Max}
		}
		if g.Mesh != nil {
			er.Triangles = g.Mesh.Triangles
			er.Unresolved = g.Mesh.Unresolved
		}
		if p, ok := e.(*jxf.Polyline); ok && p.Thickness > 0 {
			if er.Outline, err = codec.Outline(p); err != nil {
				er.Error = err.Error()
			}
		}
		resp.Entities[i] = er
	}
	return c.JSON(resp)
}

func (s *Server) codecFor(c fiber.Ctx) (*jxf.Codec, error) {
	mode, value := c.Query("mode"), c.Query("value")
	if mode == "" && value == "" {
		return s.codec, nil
	}

	cfg := s.codec.Sampling()
	if mode != "" {
		cfg.Mode = jxf.SampleMode(mode)
	}
	if value != "" {
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, errors.Join(jxf.ErrInvalidSampleConfig, err)
		}
		cfg.Value = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return jxf.New(
		jxf.WithSampling(cfg),
		jxf.WithWorkers(s.cfg.Workers),
		jxf.WithResolver(s.resolver),
	), nil
}

func bufferURI(c fiber.Ctx) (string, error) {
	return url.PathUnescape(c.Params("+"))
}

func (s *Server) putBuffer(c fiber.Ctx) error {
	uri, err := bufferURI(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, err)
	}
	if err := s.store.Put(c.Context(), uri, c.Body()); err != nil {
		return fail(c, fiber.StatusInternalServerError, err)
	}
	s.resolver.Forget(uri)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"uri": uri, "size": len(c.Body())})
}

func (s *Server) getBuffer(c fiber.Ctx) error {
	uri, err := bufferURI(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, err)
	}
	data, err := s.store.Resolve(c.Context(), uri)
	switch {
	case errors.Is(err, jxf.ErrNotFound):
		return fail(c, fiber.StatusNotFound, err)
	case err != nil:
		return fail(c, fiber.StatusInternalServerError, err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEOctetStream)
	return c.Send(data)
}

func (s *Server) deleteBuffer(c fiber.Ctx) error {
	uri, err := bufferURI(c)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, err)
	}
	ok, err := s.store.Delete(c.Context(), uri)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, err)
	}
	s.resolver.Forget(uri)
	if !ok {
		return fail(c, fiber.StatusNotFound, jxf.ErrNotFound)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) listBuffers(c fiber.Ctx) error {
	list, err := s.store.List(c.Context())
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, err)
	}
	if list == nil {
		list = []blobstore.Info{}
	}
	return c.JSON(fiber.Map{"buffers": list})
}

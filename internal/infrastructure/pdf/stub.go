package pdf

import (
	"context"
	"strings"
	"time"
)

// StubRenderer is an in-process renderer for tests and environments
// without a Chrome binary. It emits a minimal single-page PDF.
type StubRenderer struct {
	// Err, when set, is returned from every Render call
	Err error

	// Rendered records the requests passed to Render
	Rendered []*RenderRequest
}

// NewStubRenderer creates a stub renderer
func NewStubRenderer() *StubRenderer {
	return &StubRenderer{}
}

// Render returns a minimal PDF wrapping the request title
func (r *StubRenderer) Render(_ context.Context, req *RenderRequest) (*RenderResult, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	if req == nil || strings.TrimSpace(req.HTML) == "" {
		return nil, NewRenderError(ErrCodeInvalidHTML, "HTML content is empty", nil)
	}

	r.Rendered = append(r.Rendered, req)

	var b strings.Builder
	b.WriteString("%PDF-1.4\n")
	b.WriteString("1 0 obj << /Type /Catalog /Pages 2 0 R >> endobj\n")
	b.WriteString("2 0 obj << /Type /Pages /Kids [3 0 R] /Count 1 >> endobj\n")
	b.WriteString("3 0 obj << /Type /Page /Parent 2 0 R >> endobj\n")
	b.WriteString("% ")
	b.WriteString(req.Title)
	b.WriteString("\n%%EOF\n")

	data := []byte(b.String())
	return &RenderResult{
		PDFData:        data,
		PageCount:      estimatePageCount(data),
		RenderDuration: time.Millisecond,
	}, nil
}

// Close is a no-op
func (r *StubRenderer) Close() error {
	return nil
}

var _ Renderer = (*StubRenderer)(nil)

package printing

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPrintParams(t *testing.T) {
	t.Run("defaults to A4 portrait", func(t *testing.T) {
		p := buildPrintParams(&RenderRequest{HTML: "<p>x</p>"})
		assert.InDelta(t, mmToInches(A4WidthMM), p.PaperWidth, 0.01)
		assert.InDelta(t, mmToInches(A4HeightMM), p.PaperHeight, 0.01)
		assert.InDelta(t, mmToInches(defaultMarginMM), p.MarginTop, 0.01)
		assert.False(t, p.Landscape)
		assert.True(t, p.PrintBackground)
		assert.False(t, p.DisplayHeaderFooter)
	})

	t.Run("footer reserves bottom margin", func(t *testing.T) {
		p := buildPrintParams(&RenderRequest{HTML: "<p>x</p>", MarginMM: 5, FooterHTML: InvoiceFooter, Landscape: true})
		assert.True(t, p.DisplayHeaderFooter)
		assert.True(t, p.Landscape)
		assert.InDelta(t, mmToInches(5), p.MarginTop, 0.01)
		assert.InDelta(t, mmToInches(15), p.MarginBottom, 0.01)
		assert.Equal(t, InvoiceFooter, p.FooterTemplate)
	})
}

func TestBuildCompleteHTML(t *testing.T) {
	full := "<!DOCTYPE html><html><body>x</body></html>"
	assert.Equal(t, full, buildCompleteHTML(&RenderRequest{HTML: full}))

	wrapped := buildCompleteHTML(&RenderRequest{HTML: "<p>x</p>", Title: "A & B"})
	assert.True(t, strings.HasPrefix(wrapped, "<!DOCTYPE html>"))
	assert.Contains(t, wrapped, "<title>A &amp; B</title>")
	assert.Contains(t, wrapped, "<body><p>x</p></body>")
}

func TestChromedpRenderer_RejectsEmptyHTML(t *testing.T) {
	r, err := NewChromedpRenderer(&ChromedpConfig{DefaultTimeout: time.Second})
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Render(context.Background(), nil)
	var renderErr *RenderError
	require.True(t, errors.As(err, &renderErr))
	assert.Equal(t, ErrCodeInvalidHTML, renderErr.Code)

	_, err = r.Render(context.Background(), &RenderRequest{HTML: "   "})
	require.True(t, errors.As(err, &renderErr))
	assert.Equal(t, ErrCodeInvalidHTML, renderErr.Code)
}

func TestEstimatePageCount(t *testing.T) {
	assert.Equal(t, 1, estimatePageCount([]byte("%PDF-1.4")))
	pdf := []byte("<< /Type /Pages /Count 2 >> << /Type /Page >> << /Type /Page >>")
	assert.Equal(t, 2, estimatePageCount(pdf))
}

func TestRenderError(t *testing.T) {
	cause := errors.New("boom")
	err := NewRenderError(ErrCodeRenderFailed, "failed", cause)
	assert.Equal(t, "failed: boom", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed", NewRenderError(ErrCodeRenderFailed, "failed", nil).Error())
}

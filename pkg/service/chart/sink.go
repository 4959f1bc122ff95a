package chart

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/worktime/pkg/domain/interfaces"
	"github.com/secmon-lab/worktime/pkg/domain/model"
)

// FileSink writes each chart or message to a file, replacing what was there
type FileSink struct {
	mu       sync.Mutex
	path     string
	format   model.ChartFormat
	renderer *Renderer
	lastOpts model.RenderOptions
}

// NewFileSink creates a sink writing to path. The format follows the file
// extension.
func NewFileSink(path string, renderer *Renderer) (*FileSink, error) {
	format, err := model.ParseChartFormat(filepath.Ext(path))
	if err != nil {
		return nil, goerr.Wrap(err, "unsupported output file", goerr.V("path", path))
	}
	if renderer == nil {
		renderer = NewRenderer()
	}

	return &FileSink{
		path:     path,
		format:   format,
		renderer: renderer,
		lastOpts: model.DefaultRenderOptions(),
	}, nil
}

// Path returns the output file
func (s *FileSink) Path() string {
	return s.path
}

// Show replaces the file with a chart of series
func (s *FileSink) Show(ctx context.Context, series *model.ChartSeries, opts model.RenderOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var buf bytes.Buffer
	if err := s.renderer.Render(&buf, series, opts, s.format); err != nil {
		return err
	}
	s.lastOpts = opts.WithDefaults()

	if err := s.replace(buf.Bytes()); err != nil {
		return err
	}
	ctxlog.From(ctx).Info("Chart written", "path", s.path, "months", series.Len())
	return nil
}

// ShowError replaces the file with message, sized like the last chart
func (s *FileSink) ShowError(ctx context.Context, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var buf bytes.Buffer
	if err := s.renderer.RenderMessage(&buf, message, s.lastOpts, s.format); err != nil {
		return err
	}

	if err := s.replace(buf.Bytes()); err != nil {
		return err
	}
	ctxlog.From(ctx).Warn("Error message written", "path", s.path, "message", message)
	return nil
}

// replace swaps in the new content so that readers never see a partial file
func (s *FileSink) replace(data []byte) error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".worktime-*")
	if err != nil {
		return goerr.Wrap(err, "failed to create temp file", goerr.V("dir", dir))
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return goerr.Wrap(err, "failed to write temp file", goerr.V("path", tmpName))
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return goerr.Wrap(err, "failed to close temp file", goerr.V("path", tmpName))
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return goerr.Wrap(err, "failed to replace output file", goerr.V("path", s.path))
	}
	return nil
}

var _ interfaces.ChartSink = (*FileSink)(nil)

package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/manx"
)

var _ manx.DocsService = (*LoggingDocsService)(nil)

// LoggingDocsService wraps a DocsService with debug logging.
type LoggingDocsService struct {
	next   manx.DocsService
	logger *slog.Logger
}

// NewLoggingDocsService creates a new LoggingDocsService.
func NewLoggingDocsService(next manx.DocsService, logger *slog.Logger) *LoggingDocsService {
	return &LoggingDocsService{next: next, logger: logger}
}

func (s *LoggingDocsService) ResolveLibrary(ctx context.Context, name string) (lib *manx.Library, err error) {
	defer func(begin time.Time) {
		var id string
		if lib != nil {
			id = lib.ID
		}
		s.logger.Debug("resolve library",
			"query", name,
			"id", id,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.ResolveLibrary(ctx, name)
}

func (s *LoggingDocsService) GetDocumentation(ctx context.Context, libraryID, topic string) (text string, err error) {
	defer func(begin time.Time) {
		s.logger.Debug("get documentation",
			"id", libraryID,
			"query", topic,
			"bytes", len(text),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.GetDocumentation(ctx, libraryID, topic)
}

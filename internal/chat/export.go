// ABOUTME: Session transcript export to txt, md, or pdf files
// ABOUTME: Downloads the rendered file from the backend and writes it to the export directory

package chat

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/harper/chatsync/internal/api"
	chaterrors "github.com/harper/chatsync/internal/errors"
	"github.com/harper/chatsync/internal/logger"
)

// ExportFormats lists the accepted formats.
var ExportFormats = []string{api.FormatText, api.FormatMarkdown, api.FormatPDF}

type Exporter struct {
	backend Backend
	dir     string
}

func NewExporter(backend Backend, dir string) *Exporter {
	if dir == "" {
		dir = "."
	}
	return &Exporter{backend: backend, dir: dir}
}

// Export writes chat-export-<id>.<format> for sessionID and returns its path.
func (e *Exporter) Export(ctx context.Context, sessionID, format string) (string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if !validFormat(format) {
		return "", chaterrors.NewValidationError("format", "format must be txt, md, or pdf")
	}
	if sessionID == "" {
		return "", chaterrors.NewValidationError("session", "no active chat to export")
	}

	export, err := e.backend.ExportSession(ctx, api.ID(sessionID), format)
	if err != nil {
		return "", fmt.Errorf("export: %w", err)
	}

	name := filepath.Base(export.Filename)
	if name == "." || name == string(filepath.Separator) || name == "" {
		name = fmt.Sprintf("chat-export-%s.%s", sessionID, format)
	}

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("export: create directory: %w", err)
	}
	path := filepath.Join(e.dir, name)
	if err := os.WriteFile(path, export.Data, 0o644); err != nil {
		return "", fmt.Errorf("export: write file: %w", err)
	}

	logger.Info("exported session %s to %s (%d bytes)", sessionID, path, len(export.Data))
	return path, nil
}

func validFormat(format string) bool {
	for _, f := range ExportFormats {
		if f == format {
			return true
		}
	}
	return false
}

// Package binary reads the packaged descriptor (plugin.yml) out of installed
// plugin jars and scans the server's plugin directory for them.
package binary

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/plugmate/plugmate/internal/core/domain"
	"github.com/plugmate/plugmate/internal/core/ports"
)

// Descriptor file names recognized inside a jar, in lookup order.
var descriptorNames = []string{"plugin.yml", "paper-plugin.yml"}

// ReadDescriptor extracts a plugin's packaged descriptor from a jar file.
// It returns nil (and no error) when the binary carries no recognizable
// descriptor.
func ReadDescriptor(fs afero.Fs, path string) (*domain.Descriptor, error) {
	file, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	readerAt, ok := file.(io.ReaderAt)
	if !ok {
		return nil, fmt.Errorf("failed to read %s: file does not support random access", path)
	}
	archive, err := zip.NewReader(readerAt, info.Size())
	if err != nil {
		// Not a jar; treat as unrecognized rather than failing the scan.
		return nil, nil
	}

	for _, name := range descriptorNames {
		entry, err := archive.Open(name)
		if err != nil {
			continue
		}
		data, err := io.ReadAll(entry)
		entry.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s from %s: %w", name, path, err)
		}

		var descriptor domain.Descriptor
		if err := yaml.Unmarshal(data, &descriptor); err != nil {
			return nil, fmt.Errorf("failed to parse %s from %s: %w", name, path, err)
		}
		if descriptor.Name == "" {
			continue
		}
		return &descriptor, nil
	}
	return nil, nil
}

// DirScanner enumerates plugin jars in a directory and pairs each with its
// packaged descriptor. Binaries without one are skipped.
type DirScanner struct {
	fs     afero.Fs
	dir    string
	logger *slog.Logger
}

// NewDirScanner creates a scanner over the server's plugin directory.
func NewDirScanner(fs afero.Fs, dir string, logger *slog.Logger) *DirScanner {
	return &DirScanner{fs: fs, dir: dir, logger: logger}
}

// Scan reads the directory and every jar's descriptor. A plugin directory
// that does not exist yet is an empty install set, not an error.
func (s *DirScanner) Scan(ctx context.Context) ([]ports.InstalledBinary, error) {
	entries, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list plugin directory: %w", err)
	}

	var installed []ports.InstalledBinary
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".jar") {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		descriptor, err := ReadDescriptor(s.fs, path)
		if err != nil {
			s.logger.Warn("skipping unreadable plugin binary", "path", path, "error", err)
			continue
		}
		if descriptor == nil {
			continue
		}
		installed = append(installed, ports.InstalledBinary{Path: path, Descriptor: *descriptor})
	}
	return installed, nil
}

package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kaya95/Autodrop-SaaS-platform/pkg/api"
)

// Layout classifies the top level of an extracted archive
type Layout int

const (
	// LayoutMultiple means the payload already sits at the top level
	LayoutMultiple Layout = iota
	// LayoutSingleDir means exactly one entry exists and it is a directory;
	// the contents of that directory are the real payload.
	LayoutSingleDir
	// LayoutSingleFile means exactly one entry exists and it is a file
	LayoutSingleFile
)

// FrontendType is a rough classification of the uploaded frontend
type FrontendType string

const (
	// FrontendSPA indicates an index.html plus a static asset folder
	FrontendSPA FrontendType = "spa"
	// FrontendStatic indicates a plain index.html site
	FrontendStatic FrontendType = "static"
	// FrontendUnknown indicates no entry document at the top level
	FrontendUnknown FrontendType = "unknown"
)

// Materializer unpacks uploaded archives into per-upload working
// directories and classifies their layout.
type Materializer struct {
	uploadDir string
	logger    *logrus.Logger
}

// NewMaterializer creates a new archive materializer rooted at uploadDir
func NewMaterializer(uploadDir string, logger *logrus.Logger) (*Materializer, error) {
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	return &Materializer{
		uploadDir: uploadDir,
		logger:    logger,
	}, nil
}

// Upload describes one extracted archive
type Upload struct {
	ID           string
	Dir          string
	FileCount    int
	FrontendType FrontendType
}

// Materialize saves the archive stream to disk, extracts it into a fresh
// working directory keyed by a generated upload identifier and removes the
// archive file afterwards.
func (m *Materializer) Materialize(r io.Reader) (*Upload, error) {
	uploadID := uuid.New().String()
	extractDir := filepath.Join(m.uploadDir, uploadID)

	if err := os.MkdirAll(extractDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create extraction directory: %w", err)
	}

	zipPath := filepath.Join(m.uploadDir, uploadID+".zip")
	zipFile, err := os.Create(zipPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create archive file: %w", err)
	}

	if _, err := io.Copy(zipFile, r); err != nil {
		zipFile.Close()
		os.RemoveAll(extractDir)
		os.Remove(zipPath)
		return nil, fmt.Errorf("failed to save archive: %w", err)
	}
	zipFile.Close()

	if err := Extract(zipPath, extractDir); err != nil {
		os.RemoveAll(extractDir)
		os.Remove(zipPath)
		return nil, err
	}

	// The archive itself is no longer needed once extracted
	os.Remove(zipPath)

	entries, err := os.ReadDir(extractDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read extraction directory: %w", err)
	}

	upload := &Upload{
		ID:           uploadID,
		Dir:          extractDir,
		FileCount:    len(entries),
		FrontendType: detectFrontendType(extractDir, entries),
	}

	m.logger.WithFields(logrus.Fields{
		"upload_id": uploadID,
		"files":     upload.FileCount,
		"type":      upload.FrontendType,
	}).Info("Archive materialized")

	return upload, nil
}

// Dir returns the working directory of a previously materialized upload,
// or api.ErrNotFound if no such upload exists.
func (m *Materializer) Dir(uploadID string) (string, error) {
	dir := filepath.Join(m.uploadDir, filepath.Base(uploadID))
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("upload %s: %w", uploadID, api.ErrNotFound)
	}
	return dir, nil
}

// Extract unpacks a zip archive into destDir preserving relative paths.
// Entries escaping the destination are rejected.
func Extract(zipPath, destDir string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("%w: %v", api.ErrExtraction, err)
	}
	defer r.Close()

	for _, f := range r.File {
		fpath := filepath.Join(destDir, f.Name)

		// Guard against path traversal
		if !strings.HasPrefix(fpath, filepath.Clean(destDir)+string(os.PathSeparator)) {
			return fmt.Errorf("%w: invalid file path %s", api.ErrExtraction, f.Name)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(fpath, 0755); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(fpath), 0755); err != nil {
			return fmt.Errorf("failed to create parent directory: %w", err)
		}

		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("%w: %v", api.ErrExtraction, err)
		}

		outFile, err := os.OpenFile(fpath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode())
		if err != nil {
			rc.Close()
			return fmt.Errorf("failed to create file: %w", err)
		}

		_, err = io.Copy(outFile, rc)
		outFile.Close()
		rc.Close()

		if err != nil {
			return fmt.Errorf("%w: %v", api.ErrExtraction, err)
		}
	}

	return nil
}

// Classify reports how the top level of dir is laid out. The result decides
// how content is copied into the frontend root: for LayoutSingleDir the
// inner directory's contents, not the wrapper, become the payload.
func Classify(dir string) (Layout, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return LayoutMultiple, fmt.Errorf("failed to read directory: %w", err)
	}

	if len(entries) == 1 {
		if entries[0].IsDir() {
			return LayoutSingleDir, nil
		}
		return LayoutSingleFile, nil
	}

	return LayoutMultiple, nil
}

// CopyPayload copies the payload of srcDir into destDir according to its
// layout classification.
func CopyPayload(srcDir, destDir string) error {
	layout, err := Classify(srcDir)
	if err != nil {
		return err
	}

	if layout == LayoutSingleDir {
		entries, err := os.ReadDir(srcDir)
		if err != nil {
			return fmt.Errorf("failed to read directory: %w", err)
		}
		srcDir = filepath.Join(srcDir, entries[0].Name())
	}

	return CopyTree(srcDir, destDir)
}

// CopyTree recursively copies the contents of srcDir into destDir
func CopyTree(srcDir, destDir string) error {
	return filepath.WalkDir(srcDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		target := filepath.Join(destDir, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}

		return copyFile(path, target)
	})
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to copy file: %w", err)
	}

	return nil
}

func detectFrontendType(dir string, entries []os.DirEntry) FrontendType {
	hasIndex := false
	hasAssets := false
	for _, e := range entries {
		switch e.Name() {
		case "index.html":
			hasIndex = true
		case "static", "assets":
			if e.IsDir() {
				hasAssets = true
			}
		}
	}

	if !hasIndex {
		return FrontendUnknown
	}
	if hasAssets {
		return FrontendSPA
	}
	return FrontendStatic
}

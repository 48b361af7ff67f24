package assets

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/kaya95/Autodrop-SaaS-platform/internal/archive"
)

// EntryDocument is the file a browser loads first for a deployed frontend
const EntryDocument = "index.html"

// conventionalDirs are checked before falling back to a full tree search
var conventionalDirs = []string{"public", "dist", "build"}

// Snapshot is an in-memory listing of a directory tree. Resolution runs
// against the snapshot only, so the search is testable without a real
// filesystem.
type Snapshot struct {
	// Files holds slash-separated paths of regular files, relative to the
	// snapshot root.
	Files []string
}

// TakeSnapshot lists the tree rooted at dir
func TakeSnapshot(dir string) (Snapshot, error) {
	var snap Snapshot
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		snap.Files = append(snap.Files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to snapshot directory: %w", err)
	}
	sort.Strings(snap.Files)
	return snap, nil
}

// Resolve locates the entry document within the snapshot and returns the
// slash-separated directory containing it, relative to the snapshot root
// ("." for the root itself). The search checks the root first, then the
// conventional subdirectories plus any single top-level directory, then
// falls back to a depth-first search of the whole tree. The second return
// is false when no entry document exists anywhere.
func Resolve(snap Snapshot) (string, bool) {
	has := make(map[string]bool, len(snap.Files))
	for _, f := range snap.Files {
		has[f] = true
	}

	// 1. Root
	if has[EntryDocument] {
		return ".", true
	}

	// 2. Conventional subdirectories, plus a single app-named folder
	candidates := append([]string{}, conventionalDirs...)
	if single, ok := singleTopLevelDir(snap); ok {
		candidates = append(candidates, single)
	}
	for _, dir := range candidates {
		if has[path.Join(dir, EntryDocument)] {
			return dir, true
		}
	}

	// 3. Depth-first fallback over the whole tree
	for _, f := range snap.Files {
		if path.Base(f) == EntryDocument {
			return path.Dir(f), true
		}
	}

	return "", false
}

// singleTopLevelDir returns the name of the only top-level directory, if the
// snapshot has exactly one and no top-level files besides it.
func singleTopLevelDir(snap Snapshot) (string, bool) {
	tops := make(map[string]bool)
	for _, f := range snap.Files {
		i := strings.IndexByte(f, '/')
		if i < 0 {
			// A file at the top level rules this case out
			return "", false
		}
		tops[f[:i]] = true
	}
	if len(tops) != 1 {
		return "", false
	}
	for name := range tops {
		return name, true
	}
	return "", false
}

// Resolver locates frontend entry documents on disk and normalizes the
// serving root so static serving can always assume a flat root.
type Resolver struct {
	logger *logrus.Logger
}

// NewResolver creates a new asset resolver
func NewResolver(logger *logrus.Logger) *Resolver {
	return &Resolver{logger: logger}
}

// ResolveRoot finds the entry document under root. When it sits below the
// root, the containing directory's contents are copied up so the entry
// document ends at the root itself. Returns whether an entry document was
// found; a miss is not an error, the application is then served as a raw
// static folder.
func (r *Resolver) ResolveRoot(root string) (bool, error) {
	snap, err := TakeSnapshot(root)
	if err != nil {
		return false, err
	}

	dir, found := Resolve(snap)
	if !found {
		r.logger.WithField("root", root).Warn("No entry document found in frontend tree")
		return false, nil
	}

	if dir == "." {
		return true, nil
	}

	// Materialize the containing directory's contents at the root
	src := filepath.Join(root, filepath.FromSlash(dir))
	r.logger.WithFields(logrus.Fields{
		"root": root,
		"dir":  dir,
	}).Info("Promoting nested entry document to serving root")

	if err := archive.CopyTree(src, root); err != nil {
		return false, fmt.Errorf("failed to promote entry document: %w", err)
	}

	return true, nil
}

// FindEntry returns the absolute path of the entry document under root, or
// false when none exists. It does not modify the tree.
func FindEntry(root string) (string, bool) {
	snap, err := TakeSnapshot(root)
	if err != nil {
		return "", false
	}
	dir, found := Resolve(snap)
	if !found {
		return "", false
	}
	p := filepath.Join(root, filepath.FromSlash(dir), EntryDocument)
	if _, err := os.Stat(p); err != nil {
		return "", false
	}
	return p, true
}

package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
)

// maxArtifactSize bounds a single workspace write so runaway agent output
// cannot fill the disk.
const maxArtifactSize = 10 << 20

// Workspace gives executed code a scratch directory for results, so large
// outputs land on disk instead of in the conversation. Paths are confined to
// the workspace root.
type Workspace struct {
	fs   afs.Service
	Root string
}

// NewWorkspace creates a workspace rooted at root (".workspace" when empty).
func NewWorkspace(root string) *Workspace {
	if root == "" {
		root = ".workspace"
	}
	return &Workspace{fs: afs.New(), Root: root}
}

// Write stores data under the workspace-relative path. Maps and slices are
// stored as indented JSON, everything else verbatim.
func (w *Workspace) Write(ctx context.Context, path string, data any) error {
	target, err := w.resolve(path)
	if err != nil {
		return err
	}
	var payload []byte
	switch actual := data.(type) {
	case []byte:
		payload = actual
	case string:
		payload = []byte(actual)
	default:
		if payload, err = json.MarshalIndent(actual, "", "  "); err != nil {
			return fmt.Errorf("encode %s: %w", path, err)
		}
	}
	if len(payload) > maxArtifactSize {
		return fmt.Errorf("artifact %s exceeds %d bytes", path, maxArtifactSize)
	}
	return w.fs.Upload(ctx, target, file.DefaultFileOsMode, strings.NewReader(string(payload)))
}

// Read returns the contents of a workspace file.
func (w *Workspace) Read(ctx context.Context, path string) ([]byte, error) {
	target, err := w.resolve(path)
	if err != nil {
		return nil, err
	}
	return w.fs.DownloadWithURL(ctx, target)
}

// List returns workspace-relative paths of all stored files.
func (w *Workspace) List(ctx context.Context) ([]string, error) {
	exists, err := w.fs.Exists(ctx, w.Root)
	if err != nil || !exists {
		return nil, err
	}
	objects, err := w.fs.List(ctx, w.Root)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, object := range objects {
		if object.IsDir() {
			continue
		}
		paths = append(paths, object.Name())
	}
	sort.Strings(paths)
	return paths, nil
}

// Clear removes every stored file.
func (w *Workspace) Clear(ctx context.Context) error {
	exists, err := w.fs.Exists(ctx, w.Root)
	if err != nil || !exists {
		return err
	}
	return w.fs.Delete(ctx, w.Root)
}

// resolve confines a relative path to the workspace root.
func (w *Workspace) resolve(path string) (string, error) {
	cleaned := strings.TrimPrefix(path, "/")
	if cleaned == "" || strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("invalid workspace path %q", path)
	}
	return url.Join(w.Root, cleaned), nil
}

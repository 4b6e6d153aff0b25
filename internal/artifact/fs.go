package artifact

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gatilho/internal/report"
)

// FSStore keeps artifacts as .zip files in one directory.
type FSStore struct {
	dir string
}

func NewFSStore(dir string) (*FSStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("artifact dir cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating artifact dir: %w", err)
	}
	return &FSStore{dir: dir}, nil
}

// Put writes the zip to a temporary file and renames it into place, so a
// concurrent List never observes a partial artifact.
func (s *FSStore) Put(name string, files []report.File) error {
	if err := validateName(name); err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("artifact %s: no files to write", name)
	}

	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating artifact temp file: %w", err)
	}
	tmpName := tmp.Name()
	zw := zip.NewWriter(tmp)
	writeErr := func() error {
		for _, f := range files {
			w, err := zw.Create(f.Name)
			if err != nil {
				return err
			}
			if _, err := w.Write(f.Body); err != nil {
				return err
			}
		}
		return zw.Close()
	}()
	if closeErr := tmp.Close(); writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("writing artifact %s: %w", name, writeErr)
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("publishing artifact %s: %w", name, err)
	}
	return nil
}

// List returns the .zip files in the directory, newest first by mtime.
func (s *FSStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("listing artifacts: %w", err)
	}
	type entry struct {
		name  string
		mtime int64
	}
	var files []entry
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".zip") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, entry{name: e.Name(), mtime: info.ModTime().UnixNano()})
	}
	sort.Slice(files, func(i, j int) bool {
		if files[i].mtime != files[j].mtime {
			return files[i].mtime > files[j].mtime
		}
		return files[i].name > files[j].name
	})
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.name
	}
	return out, nil
}

func (s *FSStore) Get(name string) ([]byte, error) {
	if err := validateName(name); err != nil {
		return nil, ErrNotFound
	}
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading artifact %s: %w", name, err)
	}
	return data, nil
}

// validateName rejects anything that could escape the artifact directory:
// path separators, traversal sequences, absolute paths, hidden files.
func validateName(name string) error {
	switch {
	case name == "",
		strings.ContainsAny(name, `/\`),
		strings.Contains(name, ".."),
		strings.HasPrefix(name, "."),
		filepath.IsAbs(name),
		!strings.HasSuffix(name, ".zip"):
		return fmt.Errorf("illegal artifact name %q", name)
	}
	return nil
}

// Package staging holds uploaded files on disk for the lifetime of one request.
package staging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	defaultDirName  = "tgbridge-uploads"
	defaultFileName = "upload"
	maxNameBytes    = 128
)

// Area is a directory that staged files are written into.
type Area struct {
	root string
}

// File is one staged upload. Remove it when the request is done.
type File struct {
	Path string
	// Name is the sanitized client-supplied file name.
	Name string
	Size int64
}

// NewArea resolves dir and creates it when missing. An empty dir selects a
// subdirectory of the system temp directory.
func NewArea(dir string) (*Area, error) {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		trimmed = filepath.Join(os.TempDir(), defaultDirName)
	}

	expanded, err := expandHome(trimmed)
	if err != nil {
		return nil, err
	}

	absPath, err := filepath.Abs(expanded)
	if err != nil {
		return nil, fmt.Errorf("resolve absolute staging path: %w", err)
	}

	cleanPath := filepath.Clean(absPath)
	if err := os.MkdirAll(cleanPath, 0o700); err != nil {
		return nil, fmt.Errorf("create staging directory: %w", err)
	}

	resolved, err := filepath.EvalSymlinks(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("resolve staging directory: %w", err)
	}

	return &Area{root: resolved}, nil
}

// Root returns the absolute staging directory.
func (a *Area) Root() string {
	return a.root
}

// Stage copies r into a new uniquely named file. At most maxBytes are
// accepted when maxBytes is positive. Nothing is left on disk on failure.
func (a *Area) Stage(r io.Reader, name string, maxBytes int64) (*File, error) {
	cleanName, err := SanitizeName(name)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(a.root, uuid.NewString()+"-"+cleanName)
	if !isWithin(a.root, path) {
		return nil, NewError(ErrorOutsideArea, "file name escapes the staging directory")
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, normalizeIOError(err, "create staged file")
	}

	staged := &File{Path: path, Name: cleanName}

	src := r
	if maxBytes > 0 {
		src = io.LimitReader(r, maxBytes+1)
	}
	written, copyErr := io.Copy(file, src)
	closeErr := file.Close()

	switch {
	case copyErr != nil:
		err = normalizeIOError(copyErr, "write staged file")
	case closeErr != nil:
		err = normalizeIOError(closeErr, "close staged file")
	case maxBytes > 0 && written > maxBytes:
		err = NewError(ErrorTooLarge, fmt.Sprintf("file exceeds %d bytes", maxBytes))
	}
	if err != nil {
		_ = staged.Remove()
		return nil, err
	}

	staged.Size = written
	return staged, nil
}

// Remove deletes the staged file. Removing twice is not an error.
func (f *File) Remove() error {
	if f == nil || f.Path == "" {
		return nil
	}

	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return normalizeIOError(err, "remove staged file")
	}

	return nil
}

// SanitizeName reduces a client-supplied file name to its base name. An
// empty name becomes "upload".
func SanitizeName(name string) (string, error) {
	trimmed := strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	if trimmed == "" {
		return defaultFileName, nil
	}
	if strings.ContainsRune(trimmed, 0) {
		return "", NewError(ErrorInvalidName, "file name contains a NUL byte")
	}

	base := filepath.Base(filepath.FromSlash(trimmed))
	switch base {
	case ".", "..", string(filepath.Separator):
		return "", NewError(ErrorInvalidName, fmt.Sprintf("file name %q is not usable", name))
	}

	if len(base) > maxNameBytes {
		ext := filepath.Ext(base)
		if len(ext) > maxNameBytes/2 {
			ext = ""
		}
		base = strings.ToValidUTF8(base[:maxNameBytes-len(ext)], "") + ext
	}

	return base, nil
}

func expandHome(path string) (string, error) {
	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		return home, nil
	}

	prefix := "~" + string(filepath.Separator)
	if strings.HasPrefix(path, prefix) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		return filepath.Join(home, strings.TrimPrefix(path, prefix)), nil
	}

	return path, nil
}

func isWithin(root string, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	if rel == "." || rel == ".." {
		return false
	}
	if strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}

	return !filepath.IsAbs(rel)
}

package staging

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func mustArea(t *testing.T) *Area {
	t.Helper()

	area, err := NewArea(t.TempDir())
	if err != nil {
		t.Fatalf("NewArea error: %v", err)
	}
	return area
}

func TestNewAreaExpandsHomeAndCreatesDirectory(t *testing.T) {
	homeDir := t.TempDir()
	t.Setenv("HOME", homeDir)

	area, err := NewArea("~/uploads")
	if err != nil {
		t.Fatalf("NewArea error: %v", err)
	}

	want, err := filepath.EvalSymlinks(filepath.Join(homeDir, "uploads"))
	if err != nil {
		t.Fatalf("EvalSymlinks error: %v", err)
	}
	if area.Root() != want {
		t.Fatalf("Root = %q, want %q", area.Root(), want)
	}
}

func TestStageWritesUniqueFiles(t *testing.T) {
	area := mustArea(t)

	first, err := area.Stage(strings.NewReader("hello"), "note.txt", 0)
	if err != nil {
		t.Fatalf("Stage error: %v", err)
	}
	second, err := area.Stage(strings.NewReader("world"), "note.txt", 0)
	if err != nil {
		t.Fatalf("Stage error: %v", err)
	}

	if first.Path == second.Path {
		t.Fatalf("staged paths collide: %q", first.Path)
	}
	if first.Name != "note.txt" || first.Size != 5 {
		t.Fatalf("staged file = %+v", first)
	}
	if !strings.HasSuffix(first.Path, "-note.txt") || filepath.Dir(first.Path) != area.Root() {
		t.Fatalf("staged path = %q", first.Path)
	}

	content, err := os.ReadFile(second.Path)
	if err != nil || string(content) != "world" {
		t.Fatalf("staged content = %q, %v", content, err)
	}
}

func TestStageRejectsOversizedUpload(t *testing.T) {
	area := mustArea(t)

	_, err := area.Stage(strings.NewReader("0123456789"), "big.bin", 4)
	if CategoryFromError(err) != ErrorTooLarge {
		t.Fatalf("error category = %q, want %q", CategoryFromError(err), ErrorTooLarge)
	}

	entries, err := os.ReadDir(area.Root())
	if err != nil {
		t.Fatalf("ReadDir error: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("staging directory not empty after rejected upload: %d entries", len(entries))
	}
}

func TestStageAcceptsExactLimit(t *testing.T) {
	area := mustArea(t)

	file, err := area.Stage(strings.NewReader("1234"), "fits.bin", 4)
	if err != nil {
		t.Fatalf("Stage error: %v", err)
	}
	if file.Size != 4 {
		t.Fatalf("Size = %d, want 4", file.Size)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func TestStageCleansUpOnReadFailure(t *testing.T) {
	area := mustArea(t)

	_, err := area.Stage(failingReader{}, "broken.bin", 0)
	if CategoryFromError(err) != ErrorIO {
		t.Fatalf("error category = %q, want %q", CategoryFromError(err), ErrorIO)
	}

	entries, _ := os.ReadDir(area.Root())
	if len(entries) != 0 {
		t.Fatalf("staging directory not empty after failed upload: %d entries", len(entries))
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	area := mustArea(t)

	file, err := area.Stage(strings.NewReader("x"), "once.txt", 0)
	if err != nil {
		t.Fatalf("Stage error: %v", err)
	}

	if err := file.Remove(); err != nil {
		t.Fatalf("Remove error: %v", err)
	}
	if err := file.Remove(); err != nil {
		t.Fatalf("second Remove error: %v", err)
	}
	if _, err := os.Stat(file.Path); !os.IsNotExist(err) {
		t.Fatalf("staged file still present: %v", err)
	}

	var nilFile *File
	if err := nilFile.Remove(); err != nil {
		t.Fatalf("nil Remove error: %v", err)
	}
}

func TestSanitizeName(t *testing.T) {
	cases := map[string]string{
		"photo.jpg":           "photo.jpg",
		"../../etc/passwd":    "passwd",
		`C:\Users\me\cat.png`: "cat.png",
		"   ":                 "upload",
		"dir/":                "dir",
	}
	for input, want := range cases {
		got, err := SanitizeName(input)
		if err != nil {
			t.Fatalf("SanitizeName(%q) error: %v", input, err)
		}
		if got != want {
			t.Fatalf("SanitizeName(%q) = %q, want %q", input, got, want)
		}
	}

	for _, input := range []string{"..", "/", "bad\x00name"} {
		if _, err := SanitizeName(input); CategoryFromError(err) != ErrorInvalidName {
			t.Fatalf("SanitizeName(%q) category = %q, want %q", input, CategoryFromError(err), ErrorInvalidName)
		}
	}

	long := strings.Repeat("a", 300) + ".ogg"
	got, err := SanitizeName(long)
	if err != nil {
		t.Fatalf("SanitizeName long error: %v", err)
	}
	if len(got) != maxNameBytes || !strings.HasSuffix(got, ".ogg") {
		t.Fatalf("SanitizeName long = %d bytes %q", len(got), got[len(got)-8:])
	}
}

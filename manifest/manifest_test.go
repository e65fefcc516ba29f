package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeManifest(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[project]
name = "test-app"
version = "0.1.0"

[source]
dirs = ["src", "lib"]
entry = "main.mag"

[compiler]
max-errors = 20
disassemble = true

[output]
color = "never"
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if m.Project.Name != "test-app" {
		t.Errorf("project name = %q, want test-app", m.Project.Name)
	}
	if m.Project.Version != "0.1.0" {
		t.Errorf("project version = %q, want 0.1.0", m.Project.Version)
	}
	if len(m.Source.Dirs) != 2 {
		t.Errorf("source dirs count = %d, want 2", len(m.Source.Dirs))
	}
	if m.Source.Entry != "main.mag" {
		t.Errorf("source entry = %q, want main.mag", m.Source.Entry)
	}
	if m.Compiler.MaxErrors != 20 {
		t.Errorf("max-errors = %d, want 20", m.Compiler.MaxErrors)
	}
	if !m.Compiler.Disassemble {
		t.Error("disassemble = false, want true")
	}
	if m.Output.Color != ColorNever {
		t.Errorf("color = %q, want never", m.Output.Color)
	}
}

func TestLoadManifestDefaults(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[project]
name = "minimal"
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(m.Source.Dirs) != 1 || m.Source.Dirs[0] != "src" {
		t.Errorf("default source dirs = %v, want [src]", m.Source.Dirs)
	}
	if m.Output.Color != ColorAuto {
		t.Errorf("default color = %q, want auto", m.Output.Color)
	}
	if m.Compiler.MaxErrors != 0 {
		t.Errorf("default max-errors = %d, want 0", m.Compiler.MaxErrors)
	}
}

func TestLoadManifestRejectsBadValues(t *testing.T) {
	tests := []struct {
		content string
		want    string
	}{
		{"[output]\ncolor = \"sometimes\"\n", "output.color"},
		{"[compiler]\nmax-errors = -1\n", "max-errors"},
		{"[project\n", "parse error"},
	}

	for _, tt := range tests {
		dir := t.TempDir()
		writeManifest(t, dir, tt.content)
		_, err := Load(dir)
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("Load(%q) error = %v, want it to mention %q", tt.content, err, tt.want)
		}
	}
}

func TestFindAndLoad(t *testing.T) {
	dir := t.TempDir()
	subDir := filepath.Join(dir, "a", "b", "c")
	if err := os.MkdirAll(subDir, 0755); err != nil {
		t.Fatal(err)
	}
	writeManifest(t, dir, `[project]
name = "found-project"
`)

	// Should find manifest when starting from a deep subdirectory
	m, err := FindAndLoad(subDir)
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if m == nil {
		t.Fatal("FindAndLoad returned nil")
	}
	if m.Project.Name != "found-project" {
		t.Errorf("project name = %q, want found-project", m.Project.Name)
	}
}

func TestFindAndLoadNotFound(t *testing.T) {
	dir := t.TempDir()
	m, err := FindAndLoad(dir)
	if err != nil {
		t.Fatalf("FindAndLoad error: %v", err)
	}
	if m != nil {
		t.Error("expected nil manifest when no magpie.toml exists")
	}
}

func TestSourceDirPaths(t *testing.T) {
	m := &Manifest{
		Dir: "/app",
		Source: Source{
			Dirs: []string{"src", "lib"},
		},
	}

	paths := m.SourceDirPaths()
	if len(paths) != 2 {
		t.Fatalf("expected 2 paths, got %d", len(paths))
	}
	if paths[0] != "/app/src" {
		t.Errorf("paths[0] = %q, want /app/src", paths[0])
	}
	if paths[1] != "/app/lib" {
		t.Errorf("paths[1] = %q, want /app/lib", paths[1])
	}
}

func TestSourceFilesAndEntry(t *testing.T) {
	dir := t.TempDir()
	for _, f := range []string{"src/main.mag", "src/util/math.mag", "src/notes.txt"} {
		path := filepath.Join(dir, f)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("1\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	m := Default(dir)
	m.Source.Dirs = append(m.Source.Dirs, "missing")
	m.Source.Entry = "main.mag"

	files, err := m.SourceFiles()
	if err != nil {
		t.Fatalf("SourceFiles: %v", err)
	}
	want := []string{
		filepath.Join(dir, "src", "main.mag"),
		filepath.Join(dir, "src", "util", "math.mag"),
	}
	if len(files) != len(want) || files[0] != want[0] || files[1] != want[1] {
		t.Errorf("SourceFiles = %v, want %v", files, want)
	}

	if got := m.EntryPath(); got != want[0] {
		t.Errorf("EntryPath = %q, want %q", got, want[0])
	}
}

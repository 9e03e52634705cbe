package graphdef

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ten-framework/ten-go/value"
)

type rejectAllSchema struct{}

func (rejectAllSchema) Validate(v *value.Value) error {
	return os.ErrInvalid
}

func TestLoadManifestRequiresTypeAndName(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "manifest.json"), `{"version": "1.0.0"}`)
	if _, err := LoadManifest(dir, nil); err == nil {
		t.Fatalf("expected LoadManifest to reject a manifest missing type/name")
	}
}

func TestLoadManifestParsesAPI(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "manifest.json"), `{
		"type": "extension",
		"name": "echo",
		"version": "1.0.0",
		"api": {"cmd_in": [{"name": "hello"}]}
	}`)
	m, err := LoadManifest(dir, nil)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if len(m.API.CmdIn) != 1 || m.API.CmdIn[0].Name != "hello" {
		t.Fatalf("expected cmd_in to be parsed, got %+v", m.API)
	}
}

func TestLoadManifestAppliesSchema(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "manifest.json"), `{"type": "extension", "name": "echo", "version": "1.0.0"}`)
	if _, err := LoadManifest(dir, rejectAllSchema{}); err == nil {
		t.Fatalf("expected a failing schema to reject the manifest")
	}
}

func TestLoadPropertyMissingFileReturnsEmptyObject(t *testing.T) {
	dir := t.TempDir()
	v, err := LoadProperty(dir, nil)
	if err != nil {
		t.Fatalf("LoadProperty: %v", err)
	}
	if v == nil {
		t.Fatalf("expected a non-nil empty object for a missing property.json")
	}
}

func TestFindManifestDirWalksUpToMatch(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "manifest.json"), `{"type": "extension", "name": "echo", "version": "1.0.0"}`)
	nested := filepath.Join(root, "bin", "lib")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	dir, err := FindManifestDir(nested, "extension", "echo")
	if err != nil {
		t.Fatalf("FindManifestDir: %v", err)
	}
	if dir != root {
		t.Fatalf("FindManifestDir = %q, want %q", dir, root)
	}
}

func TestFindManifestDirNoMatch(t *testing.T) {
	dir := t.TempDir()
	if _, err := FindManifestDir(dir, "extension", "nonexistent"); err == nil {
		t.Fatalf("expected FindManifestDir to fail when no manifest matches")
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile %s: %v", path, err)
	}
}

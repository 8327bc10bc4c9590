package dlog

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestArchiverMovesAndTruncates(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "default.json")
	if err := os.WriteFile(src, []byte(`{"msg":"hi"}`+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	a := Archiver{Dir: dir}
	a.Process()

	yesterday := time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	archived := filepath.Join(dir, yesterday, "default.json")
	content, err := os.ReadFile(archived)
	if err != nil {
		t.Fatalf("archived file missing: %v", err)
	}
	if len(content) == 0 {
		t.Fatal("archived file is empty")
	}

	info, err := os.Stat(src)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() != 0 {
		t.Fatalf("original not truncated, size %d", info.Size())
	}
}

func TestArchiverSuffixesOnCollision(t *testing.T) {
	dir := t.TempDir()
	yesterday := time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	if err := os.Mkdir(filepath.Join(dir, yesterday), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "default.json"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	a := Archiver{Dir: dir}
	a.Process()

	if _, err := os.Stat(filepath.Join(dir, yesterday+"-1", "default.json")); err != nil {
		t.Fatalf("suffixed archive dir missing: %v", err)
	}
}

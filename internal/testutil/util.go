// Package testutil holds golden-file helpers shared by package tests.
// Run tests with -update to rewrite golden files from the current output.
package testutil

import (
	"bytes"
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"testing"
)

var Update = flag.Bool(
	"update",
	false,
	"update golden files",
)

func goldenPath(name string) string {
	return filepath.Join("testdata", name+".golden")
}

func writeGolden(t *testing.T, name string, b []byte) {
	t.Helper()
	path := goldenPath(name)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create testdata dir: %v", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatalf("failed to write golden file: %v", err)
	}
}

func loadGolden(t *testing.T, name string) []byte {
	t.Helper()

	b, err := os.ReadFile(goldenPath(name))
	if err != nil {
		t.Fatalf("failed to read golden file: %v", err)
	}
	return b
}

// CompareBytesWithGolden fails t when actual differs from testdata/<name>.golden.
func CompareBytesWithGolden(t *testing.T, name string, actual []byte) {
	t.Helper()

	if *Update {
		writeGolden(t, name, actual)
		return
	}

	expected := loadGolden(t, name)
	if !bytes.Equal(expected, actual) {
		t.Fatalf("golden mismatch for %s\nexpected:\n%s\nactual:\n%s",
			name, string(expected), string(actual))
	}
}

// CompareWithGolden compares the indented JSON encoding of v with
// testdata/<name>.golden.
func CompareWithGolden(t *testing.T, name string, v any) {
	t.Helper()

	actual, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		t.Fatalf("failed to marshal actual JSON: %v", err)
	}
	CompareBytesWithGolden(t, name, actual)
}

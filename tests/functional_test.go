package tests

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dialscript/dial/internal/interp"
)

// TestFunctional runs .dial files through the interpreter and compares the
// final result rendering with .want files. Scripts here run without a
// gateway, so they cover the pure evaluation surface only.
func TestFunctional(t *testing.T) {
	var testFiles []string
	err := filepath.Walk("scripts", func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.HasSuffix(path, ".dial") {
			return nil
		}
		wantFile := strings.TrimSuffix(path, ".dial") + ".want"
		if _, err := os.Stat(wantFile); err == nil {
			testFiles = append(testFiles, path)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Failed to walk scripts: %v", err)
	}
	if len(testFiles) == 0 {
		t.Skip("No test files with .want found")
	}

	for _, testFile := range testFiles {
		testName := strings.TrimSuffix(filepath.Base(testFile), ".dial")

		t.Run(testName, func(t *testing.T) {
			src, err := os.ReadFile(testFile)
			if err != nil {
				t.Fatalf("Failed to read script: %v", err)
			}
			wantBytes, err := os.ReadFile(strings.TrimSuffix(testFile, ".dial") + ".want")
			if err != nil {
				t.Fatalf("Failed to read .want file: %v", err)
			}
			want := strings.TrimSpace(string(wantBytes))

			in := interp.New(interp.Options{})
			defer in.Close()
			if err := in.Run(context.Background(), string(src)); err != nil {
				t.Fatalf("Script failed: %v", err)
			}

			got := ""
			if v, ok := in.Result(); ok {
				got = v.String()
			}
			if got != want {
				t.Errorf("Result mismatch\nGot:  %s\nWant: %s", got, want)
			}
		})
	}
}

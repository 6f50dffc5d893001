package fonts

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadEmbedded(t *testing.T) {
	for _, name := range Names() {
		data, err := Load("embed:" + name)
		if err != nil {
			t.Fatalf("Load(embed:%s): %v", name, err)
		}
		if len(data) == 0 {
			t.Fatalf("embed:%s is empty", name)
		}
	}
	_, err := Load("embed:missing")
	if err == nil {
		t.Fatalf("expected error for unknown builtin font")
	}
	if !strings.Contains(err.Error(), "gomono-bold") {
		t.Fatalf("error should list builtin fonts: %v", err)
	}
}

func TestLoadFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "font.ttf")
	if err := os.WriteFile(path, []byte("ttf"), 0o644); err != nil {
		t.Fatal(err)
	}
	data, err := Load(path)
	if err != nil || string(data) != "ttf" {
		t.Fatalf("Load(path) = %q, %v", data, err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "none.ttf")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestResolve(t *testing.T) {
	cases := []struct {
		family, weight, want string
	}{
		{"Go Mono", "regular", "gomono"},
		{"Go Mono", "bold", "gomono-bold"},
		{"Go", "", "go-regular"},
		{"Helvetica", "Bold", "go-bold"},
	}
	for _, tc := range cases {
		got, _ := Resolve(tc.family, tc.weight)
		if !bytes.Equal(got, builtin[tc.want]) {
			t.Fatalf("Resolve(%q, %q) did not pick %s", tc.family, tc.weight, tc.want)
		}
	}
}

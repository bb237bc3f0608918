// ABOUTME: Tests for workspace providers and base-name lookup
// ABOUTME: Covers NFC/NFD equivalence and static provider isolation

package workspace

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFindByName(t *testing.T) {
	t.Parallel()

	roots := []string{"/src/alpha", "/src/beta/", "/src/cafe\u0301"}

	tests := []struct {
		name  string
		want  string
		found bool
	}{
		{"alpha", "/src/alpha", true},
		{"beta", "/src/beta/", true},
		{"caf\u00e9", "/src/cafe\u0301", true},
		{"gamma", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FindByName(roots, tt.name)
			if ok != tt.found || got != tt.want {
				t.Errorf("FindByName(%q) = (%q, %v), want (%q, %v)", tt.name, got, ok, tt.want, tt.found)
			}
		})
	}
}

func TestStatic_ReturnsCopy(t *testing.T) {
	t.Parallel()

	s := Static{"/a", "/b"}
	got, err := s.WorkspacePaths(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	got[0] = "/mutated"
	if s[0] != "/a" {
		t.Errorf("provider state mutated through returned slice: %v", s)
	}
}

func TestCwd(t *testing.T) {
	t.Parallel()

	got, err := Cwd{}.WorkspacePaths(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	wd, _ := os.Getwd()
	if len(got) != 1 || got[0] != wd {
		t.Errorf("Cwd = %v, want [%s]", got, wd)
	}
}

func TestName(t *testing.T) {
	t.Parallel()

	if got := Name(filepath.Join("x", "proj") + string(filepath.Separator)); got != "proj" {
		t.Errorf("Name = %q, want proj", got)
	}
}

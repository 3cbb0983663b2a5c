package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestThirdPartyImportForbidden(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"fmt", false},
		{"path/filepath", false},
		{"github.com/google/uuid", true},
		{"modernc.org/sqlite", true},
	}
	for _, c := range cases {
		if got := ThirdPartyImportForbidden(c.in); got != c.want {
			t.Fatalf("ThirdPartyImportForbidden(%q)=%v want %v", c.in, got, c.want)
		}
	}
}

func TestInternalImportForbidden(t *testing.T) {
	if !InternalImportForbidden("annotcore/internal/core") {
		t.Fatal("expected internal path to be forbidden")
	}
	if InternalImportForbidden("annotcore/pkg/domain") {
		t.Fatal("expected pkg path to be allowed")
	}
}

func TestAssertNoDirectImportsReportsViolations(t *testing.T) {
	dir := t.TempDir()
	src := []byte("package tmp\n\nimport (\n\t\"fmt\"\n\t\"example.com/forbidden\"\n)\n\nfunc X() { fmt.Println() }\n")
	if err := os.WriteFile(filepath.Join(dir, "x.go"), src, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	rec := &recordingTB{TB: t}
	AssertNoDirectImports(rec, dir, func(ip string) bool { return ip == "example.com/forbidden" }, "test rule")
	if !rec.failed {
		t.Fatal("expected a violation to be reported")
	}

	rec = &recordingTB{TB: t}
	AssertNoDirectImports(rec, dir, func(string) bool { return false }, "test rule")
	if rec.failed {
		t.Fatal("expected no violation")
	}
}

// recordingTB captures Fatalf instead of aborting the enclosing test.
type recordingTB struct {
	testing.TB
	failed bool
}

func (r *recordingTB) Fatalf(string, ...any) { r.failed = true }
func (r *recordingTB) Helper()               {}

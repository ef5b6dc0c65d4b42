package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeSource(t *testing.T, root string, rel string, imports ...string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	src := "package x\n\nimport (\n"
	for _, imp := range imports {
		src += "\t_ \"" + imp + "\"\n"
	}
	src += ")\n"
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestCollectViolationsFlagsLayerBreaches(t *testing.T) {
	root := filepath.Join(t.TempDir(), "contexts")
	svc := "prizeforge/contexts/prize-lifecycle/prize-service"

	writeSource(t, root, "prize-lifecycle/prize-service/domain/values/ok.go",
		"strings", svc+"/domain/errors", "golang.org/x/crypto/nacl/box")
	writeSource(t, root, "prize-lifecycle/prize-service/domain/entities/bad.go",
		"gorm.io/gorm", svc+"/adapters/postgres")
	writeSource(t, root, "prize-lifecycle/prize-service/application/router/bad.go",
		"prizeforge/internal/platform/messaging", "prizeforge/contexts/other/svc/domain")
	writeSource(t, root, "prize-lifecycle/prize-service/adapters/postgres/ok.go",
		"gorm.io/gorm", svc+"/ports")
	writeSource(t, root, "prize-lifecycle/prize-service/domain/entities/ignored_test.go",
		"gorm.io/gorm")

	got := collectViolations(root)
	want := []violation{
		{File: "contexts/prize-lifecycle/prize-service/application/router/bad.go", Line: 4, Import: "prizeforge/internal/platform/messaging", Rule: "application must not import runtime infrastructure"},
		{File: "contexts/prize-lifecycle/prize-service/application/router/bad.go", Line: 5, Import: "prizeforge/contexts/other/svc/domain", Rule: "cross-context imports are forbidden"},
		{File: "contexts/prize-lifecycle/prize-service/domain/entities/bad.go", Line: 4, Import: "gorm.io/gorm", Rule: "domain import is outside explicit allowlist"},
		{File: "contexts/prize-lifecycle/prize-service/domain/entities/bad.go", Line: 5, Import: svc + "/adapters/postgres", Rule: "domain must not import adapters"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("violations mismatch (-want +got):\n%s", diff)
	}
}

func TestIsStdlib(t *testing.T) {
	for path, want := range map[string]bool{
		"net/http":             true,
		"log/slog":             true,
		"gorm.io/gorm":         false,
		"prizeforge/contracts": false,
	} {
		if got := isStdlib(path); got != want {
			t.Fatalf("isStdlib(%q) = %v, want %v", path, got, want)
		}
	}
}

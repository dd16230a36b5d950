//go:build integration

package integration

import (
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

// TestDomainPackagesStayPure keeps the decider/fold layer free of I/O: a
// domain package may import the standard library and other domain packages,
// nothing else. Storage, transport, and clock wiring live above it.
func TestDomainPackagesStayPure(t *testing.T) {
	config := &packages.Config{
		Mode:  packages.NeedName | packages.NeedImports,
		Tests: false,
		Dir:   repoRoot(t),
	}
	pkgs, err := packages.Load(config, "./internal/services/game/domain/...")
	if err != nil {
		t.Fatalf("load domain packages: %v", err)
	}
	if packages.PrintErrors(pkgs) > 0 {
		t.Fatal("domain package load errors")
	}
	if len(pkgs) == 0 {
		t.Fatal("no domain packages found")
	}

	var violations []string
	for _, pkg := range pkgs {
		for importPath := range pkg.Imports {
			if isAllowedDomainImport(importPath) {
				continue
			}
			violations = append(violations, pkg.PkgPath+" imports "+importPath)
		}
	}
	if len(violations) > 0 {
		sort.Strings(violations)
		t.Fatalf("domain packages must not reach outside the domain:\n- %s", strings.Join(violations, "\n- "))
	}
}

func isAllowedDomainImport(importPath string) bool {
	path := filepath.ToSlash(strings.TrimSpace(importPath))
	if path == "" {
		return false
	}
	// Standard library paths have no dot in their first segment.
	first, _, _ := strings.Cut(path, "/")
	if !strings.Contains(first, ".") {
		return true
	}
	return strings.HasPrefix(path, "github.com/louisbranch/usurper.games/internal/services/game/domain")
}

func TestDomainImportAllowlist(t *testing.T) {
	allowed := []string{
		"encoding/json",
		"time",
		"github.com/louisbranch/usurper.games/internal/services/game/domain/event",
	}
	for _, path := range allowed {
		if !isAllowedDomainImport(path) {
			t.Fatalf("expected %s to be allowed", path)
		}
	}
	forbidden := []string{
		"github.com/louisbranch/usurper.games/internal/services/game/storage",
		"github.com/louisbranch/usurper.games/internal/platform/errors",
		"modernc.org/sqlite",
		"google.golang.org/grpc",
	}
	for _, path := range forbidden {
		if isAllowedDomainImport(path) {
			t.Fatalf("expected %s to be forbidden", path)
		}
	}
}

package rules

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestManifestRoundtrip(t *testing.T) {
	dir := t.TempDir()
	writeRule(t, dir, "push.toml", `command = "git push"`)
	path := filepath.Join(t.TempDir(), "manifest.json")

	resolved := DiscoverAll([]string{dir})
	if err := writeManifest(path, resolved, []string{dir}); err != nil {
		t.Fatalf("writeManifest() error: %v", err)
	}

	m, err := loadManifest(path)
	if err != nil {
		t.Fatalf("loadManifest() error: %v", err)
	}
	if !m.valid([]string{dir}) {
		t.Fatal("fresh manifest reported stale")
	}
	if len(m.Rules) != len(resolved) {
		t.Fatalf("rule count = %d, want %d", len(m.Rules), len(resolved))
	}
	found := false
	for _, c := range m.Rules {
		if c.Rules.Command.First() == "git push" {
			found = true
		}
	}
	if !found {
		t.Error("git push lost in cache roundtrip")
	}
}

func TestManifestStaleOnVersionMismatch(t *testing.T) {
	m := &manifest{Version: 0, DirMtimes: computeFingerprints(nil)}
	if m.valid(nil) {
		t.Error("wrong version accepted")
	}
}

func TestManifestStaleOnDirChange(t *testing.T) {
	dir := t.TempDir()
	m := &manifest{Version: cacheVersion, DirMtimes: computeFingerprints([]string{dir})}
	if !m.valid([]string{dir}) {
		t.Fatal("fresh manifest reported stale")
	}

	time.Sleep(10 * time.Millisecond)
	writeRule(t, dir, "new.toml", `command = "new"`)

	if m.valid([]string{dir}) {
		t.Error("dir mtime change not detected")
	}
}

func TestManifestBinarySentinel(t *testing.T) {
	prints := computeFingerprints(nil)
	found := false
	for _, p := range prints {
		if p.Path == "<binary>" {
			found = true
		}
	}
	if !found {
		t.Error("binary fingerprint missing")
	}
}

func TestCachePathProjectLocal(t *testing.T) {
	tmp := t.TempDir()
	pareDir := filepath.Join(tmp, ".pare")
	if err := os.MkdirAll(pareDir, 0o755); err != nil {
		t.Fatal(err)
	}
	got := CachePath([]string{filepath.Join(pareDir, "rules")})
	want := filepath.Join(pareDir, "cache", "manifest.json")
	if got != want {
		t.Errorf("CachePath() = %q, want %q", got, want)
	}
}

func TestCachePathUserFallback(t *testing.T) {
	got := CachePath([]string{"/pare-test-nonexistent/.pare/rules"})
	if !strings.HasSuffix(got, filepath.Join("pare", "manifest.json")) {
		t.Errorf("CachePath() = %q, want user cache fallback", got)
	}
}

func TestDiscoverWithCacheRebuildsOnStale(t *testing.T) {
	tmp := t.TempDir()
	rulesDir := filepath.Join(tmp, ".pare", "rules")
	writeRule(t, rulesDir, "first.toml", `command = "first cmd"`)
	dirs := []string{rulesDir}

	count := func(resolved []ResolvedRule) int {
		n := 0
		for _, r := range resolved {
			if r.Priority < builtinPriority {
				n++
			}
		}
		return n
	}

	if got := count(DiscoverWithCache(dirs, zerolog.Nop())); got != 1 {
		t.Fatalf("first discovery found %d local rules, want 1", got)
	}

	time.Sleep(10 * time.Millisecond)
	writeRule(t, rulesDir, "second.toml", `command = "second cmd"`)

	if got := count(DiscoverWithCache(dirs, zerolog.Nop())); got != 2 {
		t.Fatalf("stale cache not rebuilt: found %d local rules, want 2", got)
	}
}

func TestDiscoverWithCacheWriteFailureIgnored(t *testing.T) {
	tmp := t.TempDir()
	pareDir := filepath.Join(tmp, ".pare")
	rulesDir := filepath.Join(pareDir, "rules")
	writeRule(t, rulesDir, "a.toml", `command = "a cmd"`)
	// Block cache dir creation with a regular file at that path.
	if err := os.WriteFile(filepath.Join(pareDir, "cache"), []byte("not a dir"), 0o644); err != nil {
		t.Fatal(err)
	}

	resolved := DiscoverWithCache([]string{rulesDir}, zerolog.Nop())
	if len(resolved) == 0 {
		t.Error("discovery failed alongside cache write failure")
	}
}

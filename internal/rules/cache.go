package rules

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog"
)

// The discovery cache: a JSON manifest fingerprinting the search dirs and
// the binary. A hit skips walking and re-parsing every rule file; any mtime
// change, version bump, or binary swap invalidates it.

const cacheVersion = 1

type dirFingerprint struct {
	Path       string `json:"path"`
	MtimeNanos int64  `json:"mtime_nanos"`
}

type cachedRule struct {
	Rules        *RuleSet `json:"rules"`
	SourcePath   string   `json:"source_path"`
	RelativePath string   `json:"relative_path"`
	Priority     int      `json:"priority"`
}

type manifest struct {
	Version   int              `json:"version"`
	DirMtimes []dirFingerprint `json:"dir_mtimes"`
	Rules     []cachedRule     `json:"rules"`
}

// CachePath decides where the manifest lives: inside `.pare/cache/` when the
// repo-local dir exists, otherwise under the user cache dir. Empty string
// means no usable location.
func CachePath(searchDirs []string) string {
	if len(searchDirs) > 0 {
		parent := filepath.Dir(searchDirs[0])
		if info, err := os.Stat(parent); err == nil && info.IsDir() {
			return filepath.Join(parent, "cache", "manifest.json")
		}
	}
	return filepath.Join(xdg.CacheHome, "pare", "manifest.json")
}

// mtimeNanos returns path's mtime in nanoseconds since the epoch, 0 on error.
// Nanosecond precision catches sub-second rewrites on modern filesystems.
func mtimeNanos(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.ModTime().UnixNano()
}

var binaryMtime = sync.OnceValue(func() int64 {
	exe, err := os.Executable()
	if err != nil {
		return 0
	}
	return mtimeNanos(exe)
})

func computeFingerprints(searchDirs []string) []dirFingerprint {
	prints := make([]dirFingerprint, 0, len(searchDirs)+1)
	for _, dir := range searchDirs {
		prints = append(prints, dirFingerprint{Path: dir, MtimeNanos: mtimeNanos(dir)})
	}
	prints = append(prints, dirFingerprint{Path: "<binary>", MtimeNanos: binaryMtime()})
	return prints
}

func (m *manifest) valid(searchDirs []string) bool {
	return m.Version == cacheVersion && slices.Equal(m.DirMtimes, computeFingerprints(searchDirs))
}

func loadManifest(path string) (*manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cache file: %w", err)
	}
	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode cache: %w", err)
	}
	return &m, nil
}

func writeManifest(path string, resolved []ResolvedRule, searchDirs []string) error {
	m := manifest{
		Version:   cacheVersion,
		DirMtimes: computeFingerprints(searchDirs),
		Rules:     make([]cachedRule, len(resolved)),
	}
	for i, r := range resolved {
		m.Rules[i] = cachedRule{
			Rules:        r.Rules,
			SourcePath:   r.SourcePath,
			RelativePath: r.RelativePath,
			Priority:     r.Priority,
		}
	}
	data, err := json.Marshal(&m)
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write cache tmp: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename cache tmp: %w", err)
	}
	return nil
}

// DiscoverWithCache is DiscoverAll behind the manifest cache. Cache write
// failures are logged and never propagated.
func DiscoverWithCache(searchDirs []string, log zerolog.Logger) []ResolvedRule {
	path := CachePath(searchDirs)

	if m, err := loadManifest(path); err == nil && m.valid(searchDirs) {
		resolved := make([]ResolvedRule, len(m.Rules))
		for i, c := range m.Rules {
			resolved[i] = ResolvedRule{
				Rules:        c.Rules,
				SourcePath:   c.SourcePath,
				RelativePath: c.RelativePath,
				Priority:     c.Priority,
			}
		}
		return resolved
	}

	resolved := DiscoverAll(searchDirs)
	if err := writeManifest(path, resolved, searchDirs); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("cache write failed")
	}
	return resolved
}

// CacheStatus describes the manifest file on disk.
type CacheStatus struct {
	Path    string
	Exists  bool
	Size    int64
	Version int
	Rules   int
	Valid   bool
}

// CacheInfo inspects the manifest without rebuilding it.
func CacheInfo(searchDirs []string) CacheStatus {
	st := CacheStatus{Path: CachePath(searchDirs)}

	info, err := os.Stat(st.Path)
	if err != nil {
		return st
	}
	st.Exists = true
	st.Size = info.Size()

	m, err := loadManifest(st.Path)
	if err != nil {
		return st
	}
	st.Version = m.Version
	st.Rules = len(m.Rules)
	st.Valid = m.valid(searchDirs)
	return st
}

// InvalidateCache removes the manifest so the next discovery rebuilds it.
func InvalidateCache(searchDirs []string) error {
	path := CachePath(searchDirs)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove cache: %w", err)
	}
	return nil
}

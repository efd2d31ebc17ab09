package engine

import (
	"regexp"
	"strings"

	"github.com/parecli/pare/internal/rules"
)

// CollectedSection holds one section's gathered content.
type CollectedSection struct {
	Lines  []string
	Blocks []string
}

// SectionMap maps collect_as names to their collected content.
type SectionMap map[string]*CollectedSection

// AnyContent reports whether at least one section collected something.
func (m SectionMap) AnyContent() bool {
	for _, s := range m {
		if len(s.Lines) > 0 || len(s.Blocks) > 0 {
			return true
		}
	}
	return false
}

// sectionMode is the state-machine variant for one section spec.
type sectionMode int

const (
	// modeMarkers toggles between inactive and active on enter/exit
	// regex matches.
	modeMarkers sectionMode = iota
	// modeAlwaysActive collects unconditionally: the section declared
	// neither an enter nor an exit marker.
	modeAlwaysActive
)

// collectSections replays every section spec independently over the raw
// output lines. Sections see the unfiltered lines: structural markers like
// blank lines or banners may be exactly what skip patterns remove.
func collectSections(cache *RegexCache, specs []rules.Section, rawLines []string) SectionMap {
	sections := make(SectionMap, len(specs))
	for _, spec := range specs {
		sections[spec.Key()] = collectOne(cache, spec, rawLines)
	}
	return sections
}

func collectOne(cache *RegexCache, spec rules.Section, rawLines []string) *CollectedSection {
	collected := &CollectedSection{}

	mode := modeMarkers
	if spec.Enter == "" && spec.Exit == "" {
		mode = modeAlwaysActive
	}

	// A declared-but-invalid pattern stays declared: it never matches,
	// rather than widening collection. cache.Get returns nil for invalid
	// patterns and matchLine treats nil as "never".
	var enterRe, exitRe, matchRe *regexp.Regexp
	if spec.Enter != "" {
		enterRe = cache.Get(spec.Enter)
	}
	if spec.Exit != "" {
		exitRe = cache.Get(spec.Exit)
	}
	if spec.Match != "" {
		matchRe = cache.Get(spec.Match)
	}
	collectAll := spec.Match == ""

	active := mode == modeAlwaysActive
	for _, line := range rawLines {
		if mode == modeMarkers {
			if !active {
				if matchLine(enterRe, line) {
					active = true
				}
				continue
			}
			// Exit marker lines are consumed, not collected; the
			// section may re-enter later.
			if matchLine(exitRe, line) {
				active = false
				continue
			}
		}
		if collectAll || matchLine(matchRe, line) {
			collected.Lines = append(collected.Lines, line)
		}
	}

	if spec.SplitOn != "" && len(collected.Lines) > 0 {
		if re := cache.Get(spec.SplitOn); re != nil {
			joined := strings.Join(collected.Lines, "\n")
			for _, block := range re.Split(joined, -1) {
				if strings.TrimSpace(block) != "" {
					collected.Blocks = append(collected.Blocks, strings.Trim(block, "\n"))
				}
			}
		}
	}

	return collected
}

func matchLine(re *regexp.Regexp, line string) bool {
	return re != nil && re.MatchString(line)
}

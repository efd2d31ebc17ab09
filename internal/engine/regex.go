package engine

import (
	"regexp"
	"sync"
)

// RegexCache memoizes compiled patterns for the lifetime of a process.
// Invalid patterns are cached as nil so they are rejected exactly once.
// Safe for concurrent use; each Apply invocation shares no other state.
type RegexCache struct {
	mu       sync.RWMutex
	compiled map[string]*regexp.Regexp
}

// NewRegexCache returns an empty cache.
func NewRegexCache() *RegexCache {
	return &RegexCache{compiled: make(map[string]*regexp.Regexp)}
}

// Get returns the compiled regexp for pattern, or nil if it does not
// compile.
func (c *RegexCache) Get(pattern string) *regexp.Regexp {
	c.mu.RLock()
	re, ok := c.compiled[pattern]
	c.mu.RUnlock()
	if ok {
		return re
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		re = nil
	}
	c.mu.Lock()
	c.compiled[pattern] = re
	c.mu.Unlock()
	return re
}

// GetAll compiles every pattern in the list, dropping invalid ones.
func (c *RegexCache) GetAll(patterns []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		if re := c.Get(p); re != nil {
			out = append(out, re)
		}
	}
	return out
}

package raid

import (
	"slices"
	"strings"
	"sync"

	"github.com/udisondev/raidgate/internal/model"
)

// DefaultPrefabs are the structure patterns protected out of the box.
var DefaultPrefabs = []string{
	"door.hinged",
	"door.double.hinged",
	"window.bars",
	"floor.ladder.hatch",
	"floor.frame",
	"wall.frame",
	"shutter",
	"wall.external",
	"gates.external",
	"box",
	"locker",
}

// Classifier decides whether an entity is a raid-protected structure.
//
// A prefab name matches when any pattern is a (case-sensitive) substring of
// it. Results are memoized per prefab name for the lifetime of the
// classifier; the pattern set is fixed at construction, so entries never
// go stale.
// Thread-safe: cache protected by RWMutex.
type Classifier struct {
	patterns []string

	mu    sync.RWMutex
	cache map[string]bool // prefab name → blockable
}

// NewClassifier creates a classifier for the given patterns.
// Empty patterns are dropped: they would match every prefab.
func NewClassifier(patterns []string) *Classifier {
	ps := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if p != "" {
			ps = append(ps, p)
		}
	}
	return &Classifier{
		patterns: ps,
		cache:    make(map[string]bool, 64),
	}
}

// Patterns returns a copy of the configured patterns.
func (c *Classifier) Patterns() []string {
	return slices.Clone(c.patterns)
}

// IsBlockable reports whether damage to the entity is subject to raid hours.
func (c *Classifier) IsBlockable(e *model.Entity) bool {
	if e == nil {
		return false
	}
	if e.BuildingBlock {
		return true
	}
	if e.PrefabName == "" {
		return false
	}

	c.mu.RLock()
	blockable, ok := c.cache[e.PrefabName]
	c.mu.RUnlock()
	if ok {
		return blockable
	}

	blockable = c.match(e.PrefabName)

	c.mu.Lock()
	// Another goroutine may have classified it meanwhile; the result is the same.
	if cached, ok := c.cache[e.PrefabName]; ok {
		blockable = cached
	} else {
		c.cache[e.PrefabName] = blockable
	}
	c.mu.Unlock()

	return blockable
}

// CacheLen returns the number of memoized prefab names.
func (c *Classifier) CacheLen() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

func (c *Classifier) match(prefab string) bool {
	for _, p := range c.patterns {
		if strings.Contains(prefab, p) {
			return true
		}
	}
	return false
}

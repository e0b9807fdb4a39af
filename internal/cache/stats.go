package cache

import "math"

// Stats contains cache counters. All counters are monotonic until Teardown.
type Stats struct {
	TotalLoaded uint64 // successful fetch+decode runs
	TotalCached uint64 // canonical records inserted
	Hits        uint64 // loads served without a fetch, including Joined
	Misses      uint64 // loads that started a fetch
	Joined      uint64 // loads that waited on another caller's fetch
	Evictions   uint64 // canonical records released
}

// HitRate returns the cache hit rate as a percentage (0-100).
// Returns 0 if no lookups have been performed.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// Memory is a rough estimate of the GPU memory held by canonical records:
// 12 bytes per vertex plus 1 MiB per bound texture slot.
type Memory struct {
	VertexCount  int
	TextureCount int
	EstimatedMB  float64
}

// Info is a combined snapshot of the engine.
type Info struct {
	Cached  int // canonical records
	Loading int // in-flight tickets
	Stats   Stats
	Memory  Memory
}

const (
	bytesPerVertex  = 12
	bytesPerTexture = 1024 * 1024
)

func estimateMB(vertices, textures int) float64 {
	bytes := float64(vertices*bytesPerVertex + textures*bytesPerTexture)
	return math.Round(bytes/1024/1024*100) / 100
}

// Stats returns a snapshot of the counters.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

// MemoryEstimate walks every canonical record.
func (e *Engine) MemoryEstimate() Memory {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.memoryLocked()
}

func (e *Engine) memoryLocked() Memory {
	var m Memory
	for _, rec := range e.records.Values() {
		v, t := rec.Footprint()
		m.VertexCount += v
		m.TextureCount += t
	}
	m.EstimatedMB = estimateMB(m.VertexCount, m.TextureCount)
	return m
}

// Info returns record and ticket counts together with stats and memory.
func (e *Engine) Info() Info {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Info{
		Cached:  e.records.Len(),
		Loading: len(e.tickets),
		Stats:   e.stats,
		Memory:  e.memoryLocked(),
	}
}

// Has reports whether a canonical record exists for key.
func (e *Engine) Has(key string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.records.Contains(key)
}

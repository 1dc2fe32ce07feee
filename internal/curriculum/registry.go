// Package curriculum loads the read-only topic catalog and serves it in
// curriculum order.
package curriculum

import (
	"fmt"
	"sync"

	"github.com/felixgeelhaar/crucible/internal/domain"
)

// Registry provides ordered access to loaded topics
type Registry struct {
	loader *Loader
	mu     sync.RWMutex
	meta   Curriculum
	topics []domain.Topic
	index  map[string]int
}

// NewRegistry creates a registry backed by a loader; call Load before use
func NewRegistry(loader *Loader) *Registry {
	return &Registry{loader: loader, index: make(map[string]int)}
}

// NewStaticRegistry creates a registry over an in-memory topic list
func NewStaticRegistry(topics []domain.Topic) *Registry {
	r := &Registry{index: make(map[string]int)}
	r.set(Curriculum{ID: "static", Topics: topics})
	return r
}

// Load reads every topic from the loader
func (r *Registry) Load() error {
	if r.loader == nil {
		return nil
	}
	c, err := r.loader.Load()
	if err != nil {
		return fmt.Errorf("load curriculum from %s: %w", r.loader.Source(), err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.set(*c)
	return nil
}

func (r *Registry) set(c Curriculum) {
	r.meta = c
	r.topics = append([]domain.Topic(nil), c.Topics...)
	r.index = make(map[string]int, len(r.topics))
	for i, t := range r.topics {
		r.index[t.ID] = i
	}
}

// Topics returns all topics in curriculum order
func (r *Registry) Topics() []domain.Topic {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.Topic(nil), r.topics...)
}

// Topic returns a topic by ID
func (r *Registry) Topic(id string) (domain.Topic, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.index[id]
	if !ok {
		return domain.Topic{}, false
	}
	return r.topics[i], true
}

// Next returns the topic after id. It reports false for the last topic and
// for unknown IDs.
func (r *Registry) Next(id string) (domain.Topic, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.index[id]
	if !ok || i+1 >= len(r.topics) {
		return domain.Topic{}, false
	}
	return r.topics[i+1], true
}

// Domains returns the distinct domain tags in curriculum order
func (r *Registry) Domains() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	var out []string
	for _, t := range r.topics {
		if !seen[t.Domain] {
			seen[t.Domain] = true
			out = append(out, t.Domain)
		}
	}
	return out
}

// Stats returns statistics about the loaded curriculum
func (r *Registry) Stats() RegistryStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := RegistryStats{
		CurriculumID: r.meta.ID,
		Version:      r.meta.Version,
		TopicCount:   len(r.topics),
		ByDomain:     make(map[string]int),
		ByPhase:      make(map[int]int),
	}
	for _, t := range r.topics {
		stats.ByDomain[t.Domain]++
		stats.ByPhase[t.Phase]++
		stats.DrillCount += len(t.Drills)
	}
	return stats
}

// RegistryStats holds statistics about the registry
type RegistryStats struct {
	CurriculumID string         `json:"curriculum_id"`
	Version      string         `json:"version"`
	TopicCount   int            `json:"topic_count"`
	DrillCount   int            `json:"drill_count"`
	ByDomain     map[string]int `json:"by_domain"`
	ByPhase      map[int]int    `json:"by_phase"`
}

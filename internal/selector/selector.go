// Package selector picks one candidate instance uniformly at random.
package selector

import (
	"errors"
	"math/rand/v2"
	"sync"
)

var ErrNoCandidates = errors.New("no candidates available")

type Selector struct {
	mu   sync.Mutex
	intn func(n int) int
}

// New uses the runtime-seeded global generator.
func New() *Selector {
	return &Selector{intn: rand.IntN}
}

// NewWithSource is for reproducible picks in tests.
func NewWithSource(src rand.Source) *Selector {
	r := rand.New(src)
	return &Selector{intn: r.IntN}
}

func (s *Selector) Pick(urls []string) (string, error) {
	if len(urls) == 0 {
		return "", ErrNoCandidates
	}

	// rand.Rand из NewWithSource не потокобезопасен
	s.mu.Lock()
	idx := s.intn(len(urls))
	s.mu.Unlock()

	return urls[idx], nil
}

var defaultSelector = New()

func Pick(urls []string) (string, error) {
	return defaultSelector.Pick(urls)
}

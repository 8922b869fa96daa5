package logger

import (
	"strconv"
	"strings"
	"sync"
)

// kindSampler passes num of every den debug events, counted per update kind
// so a burst of plain text messages does not hide contact or web-app updates.
type kindSampler struct {
	mu       sync.Mutex
	num, den int
	counters map[string]int
}

func newKindSampler(num, den int) *kindSampler {
	s := &kindSampler{}
	s.Set(num, den)
	return s
}

// Set replaces the ratio and resets all counters. A non-positive ratio
// disables sampling, so every event passes.
func (s *kindSampler) Set(num, den int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if num <= 0 || den <= 0 {
		num, den = 0, 0
	}
	s.num, s.den = min(num, den), den
	s.counters = make(map[string]int)
}

// Allow reports whether the next event of kind should be logged. The first
// num events of every den-long window pass.
func (s *kindSampler) Allow(kind string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.den == 0 {
		return true
	}
	n := s.counters[kind]%s.den + 1
	s.counters[kind] = n
	return n <= s.num
}

// parseRatio reads "1/50", "50" (one in fifty) or "all". Anything else
// yields 0/0, which the caller treats as the default.
func parseRatio(raw string) (int, int) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	switch raw {
	case "":
		return 0, 0
	case "all", "1", "1/1":
		return 1, 1
	}
	if a, b, ok := strings.Cut(raw, "/"); ok {
		num, err1 := strconv.Atoi(strings.TrimSpace(a))
		den, err2 := strconv.Atoi(strings.TrimSpace(b))
		if err1 != nil || err2 != nil {
			return 0, 0
		}
		return num, den
	}
	if v, err := strconv.Atoi(raw); err == nil && v > 0 {
		return 1, v
	}
	return 0, 0
}

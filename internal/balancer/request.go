package balancer

import (
	"fmt"
	"strings"
)

// Request asks for the balanced production of Target. CountMax of zero
// means the single count Count; otherwise every count in [Count, CountMax]
// is balanced.
type Request struct {
	Target   string   `json:"target" yaml:"target"`
	Raw      []string `json:"raw" yaml:"raw"`
	Count    int      `json:"count" yaml:"count"`
	CountMax int      `json:"countMax,omitempty" yaml:"countMax,omitempty"`
}

// Validate checks the request against a maximum range width. A
// non-positive maxRange disables the width check.
func (r Request) Validate(maxRange int) error {
	if strings.TrimSpace(r.Target) == "" {
		return fmt.Errorf("%w: target is required", ErrInvalidRequest)
	}
	if r.Count < 0 {
		return fmt.Errorf("%w: count must be non-negative, got %d", ErrInvalidRequest, r.Count)
	}
	if r.CountMax != 0 && r.CountMax < r.Count {
		return fmt.Errorf("%w: countMax %d is below count %d", ErrInvalidRequest, r.CountMax, r.Count)
	}
	if maxRange > 0 && len(r.Counts()) > maxRange {
		return fmt.Errorf("%w: range %d-%d exceeds the maximum of %d counts", ErrInvalidRequest, r.Count, r.CountMax, maxRange)
	}
	return nil
}

// Counts lists the requested counts in ascending order.
func (r Request) Counts() []int {
	if r.CountMax == 0 || r.CountMax <= r.Count {
		return []int{r.Count}
	}
	counts := make([]int, 0, r.CountMax-r.Count+1)
	for c := r.Count; c <= r.CountMax; c++ {
		counts = append(counts, c)
	}
	return counts
}

// RawSet returns the trimmed, non-empty raw item names as a set.
func (r Request) RawSet() map[string]struct{} {
	set := make(map[string]struct{}, len(r.Raw))
	for _, item := range r.Raw {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		set[item] = struct{}{}
	}
	return set
}

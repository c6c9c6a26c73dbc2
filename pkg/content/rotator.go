package content

import (
	"errors"
	"sync"
)

// Slot is one credential/model combination.
type Slot struct {
	KeyIndex int
	Key      string
	Model    string
}

// Rotator owns the position in the key×model grid. It stays on the slot
// that last succeeded and walks forward from there on failure.
type Rotator struct {
	mu     sync.Mutex
	keys   []string
	models []string
	cursor int
}

func NewRotator(keys, models []string) (*Rotator, error) {
	var clean []string
	for _, k := range keys {
		if k != "" {
			clean = append(clean, k)
		}
	}
	if len(clean) == 0 {
		return nil, errors.New("no generator api keys configured")
	}
	if len(models) == 0 {
		return nil, errors.New("no generator models configured")
	}
	return &Rotator{keys: clean, models: append([]string(nil), models...)}, nil
}

func (r *Rotator) Keys() []string {
	return append([]string(nil), r.keys...)
}

func (r *Rotator) size() int {
	return len(r.keys) * len(r.models)
}

func (r *Rotator) slot(i int) Slot {
	i %= r.size()
	k := i / len(r.models)
	return Slot{KeyIndex: k, Key: r.keys[k], Model: r.models[i%len(r.models)]}
}

// Attempts lists every slot once, starting at the current position.
func (r *Rotator) Attempts() []Slot {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Slot, 0, r.size())
	for i := 0; i < r.size(); i++ {
		out = append(out, r.slot(r.cursor+i))
	}
	return out
}

// Succeeded pins the position to s.
func (r *Rotator) Succeeded(s Slot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, m := range r.models {
		if m == s.Model {
			r.cursor = s.KeyIndex*len(r.models) + i
			return
		}
	}
}

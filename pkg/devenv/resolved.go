package devenv

import (
	"github.com/animalet/devenv/internal/snapshot"
)

// Origin tells where a resolved value came from.
type Origin int

const (
	// FromEnvironment means the process environment already had a value.
	FromEnvironment Origin = iota
	// FromFallback means the entry's fallback produced the value.
	FromFallback
)

func (o Origin) String() string {
	switch o {
	case FromEnvironment:
		return "environment"
	case FromFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// Var is one resolved variable.
type Var struct {
	Key    Key
	Value  string
	Origin Origin
}

// ResolvedEnv is the ordered result of a resolution: one Var per requested
// key, in request order.
type ResolvedEnv struct {
	vars  []Var
	index map[Key]int
}

func newResolvedEnv(capacity int) *ResolvedEnv {
	return &ResolvedEnv{
		vars:  make([]Var, 0, capacity),
		index: make(map[Key]int, capacity),
	}
}

func (r *ResolvedEnv) set(v Var) {
	if i, ok := r.index[v.Key]; ok {
		r.vars[i] = v
		return
	}
	r.index[v.Key] = len(r.vars)
	r.vars = append(r.vars, v)
}

// Get returns the value resolved for key.
func (r *ResolvedEnv) Get(key Key) (string, bool) {
	if r == nil {
		return "", false
	}
	i, ok := r.index[key]
	if !ok {
		return "", false
	}
	return r.vars[i].Value, true
}

// Len returns the number of resolved keys.
func (r *ResolvedEnv) Len() int {
	if r == nil {
		return 0
	}
	return len(r.vars)
}

// Keys returns the resolved keys in request order.
func (r *ResolvedEnv) Keys() []Key {
	keys := make([]Key, 0, r.Len())
	for _, v := range r.Vars() {
		keys = append(keys, v.Key)
	}
	return keys
}

// Vars returns a copy of the resolved variables in request order.
func (r *ResolvedEnv) Vars() []Var {
	if r == nil {
		return nil
	}
	return append([]Var(nil), r.vars...)
}

// Map returns the values keyed by variable name.
func (r *ResolvedEnv) Map() map[string]string {
	out := make(map[string]string, r.Len())
	for _, v := range r.Vars() {
		out[v.Key.String()] = v.Value
	}
	return out
}

// snapshot returns a detached copy handed to fallbacks. Both the ordered
// values and the key index are copied, so the copy shares no state with r
// and later sets on r are invisible to it.
func (r *ResolvedEnv) snapshot() (*ResolvedEnv, error) {
	vars, err := snapshot.Copy(r.vars)
	if err != nil {
		return nil, err
	}
	index, err := snapshot.Copy(r.index)
	if err != nil {
		return nil, err
	}
	return &ResolvedEnv{vars: vars, index: index}, nil
}

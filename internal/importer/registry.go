// Package importer reads bank exports and runs them through each bank's
// cleaning pipeline.
package importer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/llazzari/personal-finance/internal/normalize"
)

// Registry holds bank profiles keyed by context and bank name.
type Registry struct {
	norm     *normalize.Normalizer
	profiles map[string]*BankProfile
}

// NewRegistry creates an empty registry whose profiles clean descriptions
// with n.
func NewRegistry(n *normalize.Normalizer) *Registry {
	return &Registry{norm: n, profiles: make(map[string]*BankProfile)}
}

func key(ctx Context, name string) string {
	return string(ctx) + "/" + strings.ToLower(name)
}

// Register adds a profile. Panics on a duplicate (context, name), an
// unknown context or an invalid pattern.
func (r *Registry) Register(p *BankProfile) {
	if !p.Context.Valid() {
		panic(fmt.Sprintf("bank profile %q: unknown context %q", p.Name, p.Context))
	}
	k := key(p.Context, p.Name)
	if _, ok := r.profiles[k]; ok {
		panic("duplicate bank profile: " + k)
	}
	if err := p.prepare(r.norm); err != nil {
		panic(fmt.Sprintf("bank profile %q: %v", p.Name, err))
	}
	r.profiles[k] = p
}

// Get returns the profile for (ctx, name), or nil.
func (r *Registry) Get(ctx Context, name string) *BankProfile {
	return r.profiles[key(ctx, name)]
}

// Names returns the bank names registered under ctx, sorted.
func (r *Registry) Names(ctx Context) []string {
	var names []string
	for _, p := range r.profiles {
		if p.Context == ctx {
			names = append(names, p.Name)
		}
	}
	sort.Strings(names)
	return names
}

// All returns every profile sorted by context then name.
func (r *Registry) All() []*BankProfile {
	out := make([]*BankProfile, 0, len(r.profiles))
	for _, p := range r.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Context != out[j].Context {
			return out[i].Context > out[j].Context
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Normalizer returns the normalizer shared by the registered profiles.
func (r *Registry) Normalizer() *normalize.Normalizer {
	return r.norm
}

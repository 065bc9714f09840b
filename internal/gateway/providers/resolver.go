package providers

import (
	"errors"
	"fmt"
)

// ErrNoBackendAvailable means no rule of a binding could be selected. It is
// final for the request and never retried.
var ErrNoBackendAvailable = errors.New("no backend available")

// Factory builds a client for one provider from its API key.
type Factory func(apiKey string) Provider

// Middleware wraps a backend client.
type Middleware func(Provider) Provider

// Rule is one entry of a fallback chain. A rule is selectable when its
// provider's key is valid, or unconditionally when Terminal is set.
type Rule struct {
	Provider string
	Model    string
	Terminal bool
}

// Binding maps a model id to its ordered fallback chain.
type Binding struct {
	ModelID    string
	Rules      []Rule
	Middleware []Middleware
}

// RequiresCredential reports whether the chain has no terminal rule, so
// that some credential must be configured for it to resolve.
func (b Binding) RequiresCredential() bool {
	for _, r := range b.Rules {
		if r.Terminal {
			return false
		}
	}
	return true
}

// Backend is a resolved provider client for one model id.
type Backend struct {
	ModelID  string
	Provider string
	Model    string
	Client   Provider
}

// Resolver selects backends for model ids. It holds no mutable state, so a
// given (model id, credentials) pair always resolves the same way.
type Resolver struct {
	bindings  map[string]Binding
	order     []string
	factories map[string]Factory
}

// NewResolver validates bindings against the known factories.
func NewResolver(factories map[string]Factory, bindings ...Binding) (*Resolver, error) {
	r := &Resolver{
		bindings:  make(map[string]Binding, len(bindings)),
		factories: make(map[string]Factory, len(factories)),
	}
	for name, f := range factories {
		r.factories[name] = f
	}
	for _, b := range bindings {
		if b.ModelID == "" {
			return nil, errors.New("resolver: binding with empty model id")
		}
		if _, dup := r.bindings[b.ModelID]; dup {
			return nil, fmt.Errorf("resolver: duplicate binding for %q", b.ModelID)
		}
		if len(b.Rules) == 0 {
			return nil, fmt.Errorf("resolver: binding %q has no rules", b.ModelID)
		}
		for _, rule := range b.Rules {
			if _, ok := r.factories[rule.Provider]; !ok {
				return nil, fmt.Errorf("resolver: binding %q: unknown provider %q", b.ModelID, rule.Provider)
			}
			if rule.Model == "" {
				return nil, fmt.Errorf("resolver: binding %q: rule for %s has no model", b.ModelID, rule.Provider)
			}
		}
		b.Rules = append([]Rule(nil), b.Rules...)
		b.Middleware = append([]Middleware(nil), b.Middleware...)
		r.bindings[b.ModelID] = b
		r.order = append(r.order, b.ModelID)
	}
	return r, nil
}

// Binding returns the chain for id.
func (r *Resolver) Binding(id string) (Binding, bool) {
	b, ok := r.bindings[id]
	return b, ok
}

// ModelIDs lists bound ids in declaration order.
func (r *Resolver) ModelIDs() []string {
	return append([]string(nil), r.order...)
}

// Resolve returns the first selectable backend for modelID.
func (r *Resolver) Resolve(modelID string, creds Credentials) (*Backend, error) {
	candidates, err := r.Candidates(modelID, creds)
	if err != nil {
		return nil, err
	}
	return &candidates[0], nil
}

// Candidates returns every selectable backend in chain order, ending at the
// first terminal rule. The credentials are copied once up front.
func (r *Resolver) Candidates(modelID string, creds Credentials) ([]Backend, error) {
	b, ok := r.bindings[modelID]
	if !ok {
		return nil, fmt.Errorf("%w: unknown model %s", ErrNoBackendAvailable, modelID)
	}
	snap := creds.Snapshot()

	var out []Backend
	for _, rule := range b.Rules {
		if !rule.Terminal && !snap.Valid(rule.Provider) {
			continue
		}
		client := r.factories[rule.Provider](snap[rule.Provider])
		for _, mw := range b.Middleware {
			client = mw(client)
		}
		out = append(out, Backend{
			ModelID:  modelID,
			Provider: rule.Provider,
			Model:    rule.Model,
			Client:   client,
		})
		if rule.Terminal {
			break
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no configured credential for %s", ErrNoBackendAvailable, modelID)
	}
	return out, nil
}

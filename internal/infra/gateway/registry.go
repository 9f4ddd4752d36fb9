package gateway

import (
	"slices"

	"digital-store/internal/usecase/shared"
)

// Registry holds the enabled gateways by the name stored on orders.
type Registry struct {
	gateways map[string]shared.Gateway
}

func NewRegistry(gateways ...shared.Gateway) *Registry {
	r := &Registry{gateways: make(map[string]shared.Gateway, len(gateways))}
	for _, g := range gateways {
		if g != nil {
			r.gateways[g.Name()] = g
		}
	}
	return r
}

func (r *Registry) Get(name string) (shared.Gateway, bool) {
	g, ok := r.gateways[name]
	return g, ok
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.gateways))
	for name := range r.gateways {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

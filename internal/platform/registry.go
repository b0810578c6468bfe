package platform

import (
	"github.com/samber/lo"

	"github.com/gsarma/socialgate/internal/domain"
)

// Registry is the read-only platform table shared by every request.
type Registry struct {
	configs map[Name]Config
}

// NewRegistry builds a registry from configs. Supported platforms without an
// entry get their default endpoints and no credentials.
func NewRegistry(configs ...Config) *Registry {
	r := &Registry{configs: make(map[Name]Config, len(names))}
	for _, n := range names {
		r.configs[n] = Default(n, "", "")
	}
	for _, c := range configs {
		if _, ok := r.configs[c.Name]; ok {
			r.configs[c.Name] = c
		}
	}
	return r
}

// Get returns the config for a known platform, configured or not.
func (r *Registry) Get(name Name) Config {
	return r.configs[name]
}

// Lookup resolves a request's platform value to a fully configured platform.
// Unknown names yield an unsupported-platform error and missing credentials a
// configuration error; neither touches the network.
func (r *Registry) Lookup(raw string) (Config, error) {
	name, err := Parse(raw)
	if err != nil {
		return Config{}, err
	}
	cfg := r.configs[name]
	if !cfg.Configured() {
		return Config{}, domain.NotConfigured(string(name))
	}
	return cfg, nil
}

// Configured lists the platforms with both client credentials set.
func (r *Registry) Configured() []Name {
	return lo.Filter(names, func(n Name, _ int) bool {
		return r.configs[n].Configured()
	})
}

// Unconfigured lists the platforms missing a client id or secret.
func (r *Registry) Unconfigured() []Name {
	return lo.Without(names, r.Configured()...)
}

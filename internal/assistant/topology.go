package assistant

import (
	"fmt"

	"github.com/fyrsmithlabs/queryd/internal/chain"
	"github.com/fyrsmithlabs/queryd/internal/config"
	"github.com/fyrsmithlabs/queryd/internal/logging"
	"github.com/fyrsmithlabs/queryd/pkg/provider"
)

// BuildTopology constructs provider adapters and the per-kind routers a
// config describes. Config validation has already checked the name
// references, so an error here means an adapter rejected its own
// settings.
func BuildTopology(cfg *config.Config, log *logging.Logger) (map[string]*chain.Router, error) {
	adapters := make(map[string]provider.Provider, len(cfg.Providers))
	for _, pc := range cfg.Providers {
		p, err := provider.New(provider.Config{
			Name:      pc.Name,
			Kind:      pc.Kind,
			BaseURL:   pc.BaseURL,
			Model:     pc.Model,
			APIKey:    pc.APIKey.Value(),
			Timeout:   pc.Timeout.Duration(),
			MaxTokens: pc.MaxTokens,
			Reply:     pc.Reply,
		})
		if err != nil {
			return nil, fmt.Errorf("provider %q: %w", pc.Name, err)
		}
		adapters[pc.Name] = p
	}

	routers := make(map[string]*chain.Router, len(cfg.Assistants))
	for _, ac := range cfg.Assistants {
		ordered := make([]provider.Provider, 0, len(ac.Providers))
		for _, name := range ac.Providers {
			p, ok := adapters[name]
			if !ok {
				return nil, fmt.Errorf("assistant %q: unknown provider %q", ac.Kind, name)
			}
			ordered = append(ordered, p)
		}
		routers[ac.Kind] = chain.NewRouter(ac.Kind, ordered, cfg.Chain.FallbackText, log)
	}
	return routers, nil
}

package provider

import "context"

// Static answers every query with a fixed reply. It backs development
// configs and tests where no real backend is reachable. A blank reply is
// legal and lets a chain exercise its blank-is-failure policy.
type Static struct {
	name  string
	reply string
}

// NewStatic creates a static adapter.
func NewStatic(cfg Config) (*Static, error) {
	name := cfg.Name
	if name == "" {
		name = KindStatic
	}
	return &Static{
		name:  name,
		reply: cfg.Reply,
	}, nil
}

// Name returns the adapter name.
func (s *Static) Name() string {
	return s.name
}

// Invoke returns the fixed reply.
func (s *Static) Invoke(ctx context.Context, q Query) (*Response, error) {
	return &Response{Text: s.reply}, nil
}

var _ Provider = (*Static)(nil)

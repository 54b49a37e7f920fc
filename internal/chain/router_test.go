package chain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/queryd/pkg/provider"
)

// stubProvider scripts one adapter's behavior and counts invocations.
type stubProvider struct {
	name  string
	reply string
	err   error
	calls int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Invoke(ctx context.Context, q provider.Query) (*provider.Response, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &provider.Response{Text: s.reply}, nil
}

var errProviderDown = errors.New("provider down")

func TestRouter_FirstSuccessShortCircuits(t *testing.T) {
	a := &stubProvider{name: "a", err: errProviderDown}
	b := &stubProvider{name: "b", reply: "from-b"}
	c := &stubProvider{name: "c", reply: "from-c"}

	r := NewRouter("casual", []provider.Provider{a, b, c}, "", nil)
	out := r.Route(context.Background(), provider.Query{Text: "ping"})

	assert.Equal(t, "from-b", out.Text)
	assert.Equal(t, "b", out.Provider)
	assert.False(t, out.Fallback)

	// The chain stops at the first usable answer.
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)
	assert.Zero(t, c.calls, "later adapters must never be invoked")

	require.Len(t, out.Attempts, 2)
	assert.Equal(t, OutcomeError, out.Attempts[0].Outcome)
	assert.Equal(t, "a", out.Attempts[0].Provider)
	assert.Equal(t, 0, out.Attempts[0].Ordinal)
	assert.Contains(t, out.Attempts[0].Error, "provider down")
	assert.Equal(t, OutcomeSuccess, out.Attempts[1].Outcome)
	assert.Equal(t, 1, out.Attempts[1].Ordinal)
}

func TestRouter_BlankAnswerAdvancesChain(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"empty string", ""},
		{"whitespace only", "   \n\t"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blank := &stubProvider{name: "blank", reply: tt.reply}
			next := &stubProvider{name: "next", reply: "real answer"}

			r := NewRouter("casual", []provider.Provider{blank, next}, "", nil)
			out := r.Route(context.Background(), provider.Query{Text: "ping"})

			assert.Equal(t, "real answer", out.Text)
			assert.Equal(t, "next", out.Provider)
			require.Len(t, out.Attempts, 2)
			assert.Equal(t, OutcomeBlank, out.Attempts[0].Outcome)
		})
	}
}

func TestRouter_ExhaustionServesFallback(t *testing.T) {
	a := &stubProvider{name: "a", err: errProviderDown}
	b := &stubProvider{name: "b", err: errProviderDown}
	c := &stubProvider{name: "c", err: errProviderDown}

	r := NewRouter("casual", []provider.Provider{a, b, c}, "", nil)
	out := r.Route(context.Background(), provider.Query{Text: "ping"})

	assert.Equal(t, DefaultFallbackText, out.Text)
	assert.True(t, out.Fallback)
	assert.Empty(t, out.Provider)
	assert.Len(t, out.Attempts, 3)
}

func TestRouter_ResolveSurfacesExhaustion(t *testing.T) {
	a := &stubProvider{name: "a", err: errProviderDown}

	r := NewRouter("casual", []provider.Provider{a}, "", nil)
	out, err := r.Resolve(context.Background(), provider.Query{Text: "ping"})

	require.ErrorIs(t, err, ErrExhausted)
	require.NotNil(t, out, "the outcome is usable even when exhausted")
	assert.True(t, out.Fallback)
	assert.Equal(t, DefaultFallbackText, out.Text)
	require.Len(t, out.Attempts, 1)
	assert.Equal(t, OutcomeError, out.Attempts[0].Outcome)
}

func TestRouter_CustomFallbackText(t *testing.T) {
	down := &stubProvider{name: "down", err: errProviderDown}

	r := NewRouter("legal", []provider.Provider{down}, "The legal assistant is offline.", nil)
	out := r.Route(context.Background(), provider.Query{Text: "ping"})

	assert.Equal(t, "The legal assistant is offline.", out.Text)
	assert.True(t, out.Fallback)
}

func TestRouter_EmptyProviderList(t *testing.T) {
	r := NewRouter("", nil, "", nil)
	out, err := r.Resolve(context.Background(), provider.Query{Text: "ping"})

	require.ErrorIs(t, err, ErrExhausted)
	assert.True(t, out.Fallback)
	assert.Empty(t, out.Attempts)
	assert.Equal(t, "default", r.Name())
}

func TestRouter_MixedFailuresStillFindAnswer(t *testing.T) {
	// Error, blank, then success at the end of the chain.
	a := &stubProvider{name: "a", err: errProviderDown}
	b := &stubProvider{name: "b", reply: " "}
	c := &stubProvider{name: "c", reply: "last resort"}

	r := NewRouter("casual", []provider.Provider{a, b, c}, "", nil)
	out := r.Route(context.Background(), provider.Query{Text: "ping"})

	assert.Equal(t, "last resort", out.Text)
	assert.False(t, out.Fallback)
	require.Len(t, out.Attempts, 3)
	assert.Equal(t, OutcomeError, out.Attempts[0].Outcome)
	assert.Equal(t, OutcomeBlank, out.Attempts[1].Outcome)
	assert.Equal(t, OutcomeSuccess, out.Attempts[2].Outcome)
}

package view

import (
	"context"
	"errors"
	"testing"

	"github.com/scvdview/scvd/eval"
	"github.com/scvdview/scvd/host"
	"github.com/scvdview/scvd/types"
	"github.com/stretchr/testify/require"
)

type node string

func (n node) Name() string { return string(n) }

type testHost struct {
	host.NopHost
	vars   map[string]int64
	reads  int
	errors []error
}

func (h *testHost) ResolveSymbol(_ context.Context, name string, _ bool) (*host.RefContainer, bool) {
	if _, ok := h.vars[name]; !ok {
		return nil, false
	}
	return host.NewRoot(node(name), 4), true
}

func (h *testHost) ReadValue(_ context.Context, ref *host.RefContainer) (types.Value, bool) {
	h.reads++
	return types.NewInt(h.vars[ref.Current.Name()], 32), true
}

func (h *testHost) ReportError(err error) {
	h.errors = append(h.errors, err)
}

func (h *testHost) Errors() []error {
	errs := h.errors
	h.errors = nil
	return errs
}

func TestCompilerCaches(t *testing.T) {
	c := NewCompiler()
	a := c.Compile("x + 1", false)
	require.Same(t, a, c.Compile("x + 1", false))
	require.NotSame(t, a, c.Compile("x + 1", true))
	require.Equal(t, 2, c.Len())

	c.Reset()
	require.Equal(t, 0, c.Len())
	require.NotSame(t, a, c.Compile("x + 1", false))
}

func TestRefresh(t *testing.T) {
	h := &testHost{vars: map[string]int64{"x": 5, "y": 7}}
	r := NewRefresher(h, nil)

	items := []Item{
		{Name: "sum", Source: "x + y"},
		{Name: "const", Source: "2 * 3"},
		{Name: "text", Source: "x is %d[x]", Printf: true},
		{Name: "missing", Source: "z + 1"},
		{Name: "broken", Source: "x +"},
		{Name: "arity", Source: "__CalcMemUsed(1, 2)"},
		{Name: "after", Source: "y"},
	}

	var results []Result
	require.NoError(t, r.Run(context.Background(), items, func(res Result) {
		results = append(results, res)
	}))
	require.Len(t, results, len(items))

	require.Equal(t, "12", results[0].Value.String())
	require.Equal(t, "6", results[1].Value.String())
	require.Equal(t, "x is 5", results[2].Value.String())

	require.False(t, results[3].Value.IsValid())
	require.NoError(t, results[3].Err)
	require.Len(t, results[3].Reported, 1)

	require.Error(t, results[4].Err)
	require.NotEmpty(t, results[4].Diagnostics)

	var arity *eval.ArityError
	require.True(t, errors.As(results[5].Err, &arity))
	require.Equal(t, 4, arity.MinArgs)

	require.Equal(t, "7", results[6].Value.String())
}

func TestRefreshReusesParses(t *testing.T) {
	h := &testHost{vars: map[string]int64{"x": 1}}
	c := NewCompiler()
	r := NewRefresher(h, c)
	items := []Item{{Source: "x"}, {Source: "x + 1"}}

	for range 3 {
		require.NoError(t, r.Run(context.Background(), items, func(Result) {}))
	}
	require.Equal(t, 2, c.Len())
	require.Equal(t, 6, h.reads)
}

func TestStop(t *testing.T) {
	h := &testHost{vars: map[string]int64{"x": 1}}
	r := NewRefresher(h, nil)
	items := []Item{{Source: "x"}, {Source: "x"}, {Source: "x"}}

	n := 0
	err := r.Run(context.Background(), items, func(Result) {
		n++
		r.Stop()
	})
	require.ErrorIs(t, err, ErrStopped)
	require.Equal(t, 1, n)

	// Stop outside a run is a no-op
	r.Stop()
	require.NoError(t, r.Run(context.Background(), items, func(Result) {}))
}

func TestCancel(t *testing.T) {
	h := &testHost{vars: map[string]int64{"x": 1}}
	r := NewRefresher(h, nil)
	items := []Item{{Source: "x"}, {Source: "x"}}

	ctx, cancel := context.WithCancel(context.Background())
	var got []Result
	err := r.Run(ctx, items, func(res Result) {
		cancel()
		got = append(got, res)
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, got, 1)
	require.Equal(t, "1", got[0].Value.String())
}

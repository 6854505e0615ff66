// Package view compiles the expressions of a view once and evaluates them
// in order on every refresh.
package view

import (
	"context"
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/log"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/scvdview/scvd/eval"
	"github.com/scvdview/scvd/host"
	"github.com/scvdview/scvd/parser"
	"github.com/scvdview/scvd/token"
	"github.com/scvdview/scvd/types"
)

// ErrStopped is returned by Run after Stop.
var ErrStopped = errors.New("refresh stopped")

type compileKey struct {
	source string
	printf bool
}

// Compiler caches parse results by source text and printf mode.
type Compiler struct {
	results *xsync.MapOf[compileKey, *parser.ParseResult]
	log     log.Logger
}

func NewCompiler() *Compiler {
	return &Compiler{
		results: xsync.NewMapOf[compileKey, *parser.ParseResult](),
		log:     log.New("module", "view"),
	}
}

// Compile returns the parse result of source, parsing it on first use.
func (c *Compiler) Compile(source string, isPrintf bool) *parser.ParseResult {
	res, loaded := c.results.LoadOrCompute(compileKey{source, isPrintf}, func() *parser.ParseResult {
		return parser.ParseExpression(source, isPrintf)
	})
	if !loaded {
		for _, d := range res.Diagnostics {
			c.log.Debug("Expression diagnostic", "expr", source, "severity", d.Severity, "msg", d.Message)
		}
	}
	return res
}

func (c *Compiler) Len() int { return c.results.Size() }

func (c *Compiler) Reset() { c.results.Clear() }

// Item is one expression of a view. Current, when set, is the reference
// bare identifiers are resolved against first.
type Item struct {
	Name    string
	Source  string
	Printf  bool
	Current *host.RefContainer
}

type Result struct {
	Item        Item
	Value       types.Value
	Diagnostics []token.Diagnostic
	// Err is a hard evaluation failure or the parse error that kept the
	// item from being evaluated.
	Err error
	// Reported are the errors the host collected while evaluating the item.
	Reported []error
}

// errorCollector is implemented by hosts that keep reported errors.
type errorCollector interface {
	Errors() []error
}

// Refresher evaluates the items of a view one after another.
type Refresher struct {
	host     host.DataHost
	compiler *Compiler
	eval     *eval.Evaluator
	log      log.Logger

	mu     sync.Mutex
	cancel context.CancelCauseFunc
}

func NewRefresher(h host.DataHost, c *Compiler) *Refresher {
	if c == nil {
		c = NewCompiler()
	}
	return &Refresher{
		host:     h,
		compiler: c,
		eval:     eval.New(),
		log:      log.New("module", "view"),
	}
}

// Run evaluates items in order and passes each result to emit. Cancelling
// ctx or calling Stop ends the run after the item being evaluated; that item
// itself runs to completion.
func (r *Refresher) Run(ctx context.Context, items []Item, emit func(Result)) error {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	r.mu.Lock()
	r.cancel = cancel
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.cancel = nil
		r.mu.Unlock()
	}()

	evalCtx := context.WithoutCancel(ctx)
	for i, item := range items {
		if ctx.Err() != nil {
			r.log.Debug("Refresh interrupted", "done", i, "total", len(items))
			return context.Cause(ctx)
		}
		emit(r.evaluate(evalCtx, item))
	}
	return nil
}

// Stop ends a running Run after its current item.
func (r *Refresher) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel(ErrStopped)
	}
}

func (r *Refresher) evaluate(ctx context.Context, item Item) Result {
	res := r.compiler.Compile(item.Source, item.Printf)
	out := Result{Item: item, Diagnostics: res.Diagnostics}
	if res.HasErrors() {
		for i := range res.Diagnostics {
			if res.Diagnostics[i].Severity == token.SeverityError {
				out.Err = &res.Diagnostics[i]
				break
			}
		}
		return out
	}

	ec := &eval.EvalContext{Host: r.host, Current: item.Current}
	out.Value, out.Err = r.eval.Evaluate(ctx, ec, res, nil)
	if c, ok := r.host.(errorCollector); ok {
		out.Reported = c.Errors()
	}
	return out
}

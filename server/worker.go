package server

import (
	"fmt"

	"github.com/chazu/magpie/compiler"
	"github.com/chazu/magpie/vm"
)

// Snapshot is the result of compiling one version of an open document.
// Each snapshot owns a private Runtime so documents never see each other's
// methods.
type Snapshot struct {
	URI  string
	Text string

	Runtime     *vm.Runtime
	AST         *compiler.ModuleAst
	Module      *vm.Module
	Diagnostics []compiler.Diagnostic
}

// compileSnapshot parses and compiles text. Compiler panics propagate to
// the caller.
func compileSnapshot(uri, text string) *Snapshot {
	rt := vm.NewRuntime()
	diags := compiler.NewDiagnostics(uri)
	ast := compiler.Parse(uri, text, diags)
	module := compiler.CompileModule(rt, ast, diags)
	return &Snapshot{
		URI:         uri,
		Text:        text,
		Runtime:     rt,
		AST:         ast,
		Module:      module,
		Diagnostics: diags.List(),
	}
}

// workspace is the set of open documents. Only the worker goroutine
// touches it.
type workspace struct {
	docs map[string]*Snapshot
}

// workRequest represents a unit of work to be executed on the worker goroutine.
type workRequest struct {
	fn   func(*workspace) any
	done chan workResult
}

// workResult holds the return value from a workspace operation.
type workResult struct {
	value any
	err   error
}

// Worker serializes all compilation and workspace access through a single
// goroutine. LSP handlers run concurrently and must go through Do.
type Worker struct {
	ws       *workspace
	requests chan workRequest
	quit     chan struct{}
}

// NewWorker creates a Worker and starts the processing goroutine.
func NewWorker() *Worker {
	w := &Worker{
		ws:       &workspace{docs: make(map[string]*Snapshot)},
		requests: make(chan workRequest, 64),
		quit:     make(chan struct{}),
	}
	go w.loop()
	return w
}

// loop processes requests sequentially on a dedicated goroutine.
func (w *Worker) loop() {
	for {
		select {
		case req := <-w.requests:
			result := w.execute(req.fn)
			req.done <- result
		case <-w.quit:
			return
		}
	}
}

// execute runs a function against the workspace, recovering from panics.
// An internal compiler error in one document must not take the server down.
func (w *Worker) execute(fn func(*workspace) any) workResult {
	var result workResult
	func() {
		defer func() {
			if r := recover(); r != nil {
				result.err = fmt.Errorf("%v", r)
			}
		}()
		result.value = fn(w.ws)
	}()
	return result
}

// Do submits a function for execution on the worker goroutine and blocks
// until it completes. Returns the result and any error (including panics).
func (w *Worker) Do(fn func(*workspace) any) (any, error) {
	req := workRequest{
		fn:   fn,
		done: make(chan workResult, 1),
	}
	w.requests <- req
	result := <-req.done
	return result.value, result.err
}

// Stop shuts down the worker goroutine.
func (w *Worker) Stop() {
	close(w.quit)
}

// Update compiles a new version of a document and stores the snapshot.
func (w *Worker) Update(uri, text string) (*Snapshot, error) {
	v, err := w.Do(func(ws *workspace) any {
		snap := compileSnapshot(uri, text)
		ws.docs[uri] = snap
		return snap
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

// Snapshot returns the latest snapshot of a document, or nil.
func (w *Worker) Snapshot(uri string) *Snapshot {
	v, err := w.Do(func(ws *workspace) any {
		return ws.docs[uri]
	})
	if err != nil || v == nil {
		return nil
	}
	return v.(*Snapshot)
}

// Close forgets a document.
func (w *Worker) Close(uri string) {
	w.Do(func(ws *workspace) any {
		delete(ws.docs, uri)
		return nil
	})
}

package server

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"github.com/chazu/magpie/compiler"
	"github.com/chazu/magpie/vm"

	_ "github.com/tliron/commonlog/simple"
)

const lspName = "magpie-lsp"

var log = commonlog.GetLogger("magpie.lsp")

// LspServer compiles open documents on every change and publishes their
// diagnostics. Hover, completion and go-to-definition read the latest
// compiled snapshot.
type LspServer struct {
	worker *Worker

	mu       sync.Mutex
	versions map[string]protocol.Integer // URI → last seen version

	handler protocol.Handler
	server  *glspserver.Server
	version string
}

// NewLSP creates a new LSP server.
func NewLSP() *LspServer {
	s := &LspServer{
		worker:   NewWorker(),
		versions: make(map[string]protocol.Integer),
		version:  "0.1.0",
	}

	s.handler = protocol.Handler{
		Initialize:  s.initialize,
		Initialized: s.initialized,
		Shutdown:    s.shutdown,
		SetTrace:    s.setTrace,

		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidClose:  s.textDocumentDidClose,

		TextDocumentCompletion: s.textDocumentCompletion,
		TextDocumentHover:      s.textDocumentHover,
		TextDocumentDefinition: s.textDocumentDefinition,
	}

	s.server = glspserver.NewServer(&s.handler, lspName, false)

	return s
}

// Run starts the LSP server on stdio. Blocks until the client disconnects.
func (s *LspServer) Run() error {
	return s.server.RunStdio()
}

// --- LSP lifecycle handlers ---

func (s *LspServer) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	log.Info("initializing")

	capabilities := s.handler.CreateServerCapabilities()

	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &syncKind,
	}

	capabilities.CompletionProvider = &protocol.CompletionOptions{}
	capabilities.HoverProvider = true
	capabilities.DefinitionProvider = true

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lspName,
			Version: &s.version,
		},
	}, nil
}

func (s *LspServer) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (s *LspServer) shutdown(ctx *glsp.Context) error {
	s.worker.Stop()
	return nil
}

func (s *LspServer) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	return nil
}

// --- Document synchronization ---

func (s *LspServer) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	doc := params.TextDocument
	if !s.newer(string(doc.URI), doc.Version) {
		return nil
	}
	s.compileAndPublish(ctx, doc.URI, doc.Text)
	return nil
}

func (s *LspServer) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI
	if !s.newer(string(uri), params.TextDocument.Version) {
		return nil
	}

	// With Full sync, the last change event contains the full text
	if len(params.ContentChanges) > 0 {
		last := params.ContentChanges[len(params.ContentChanges)-1]
		if whole, ok := last.(protocol.TextDocumentContentChangeEventWhole); ok {
			s.compileAndPublish(ctx, uri, whole.Text)
		}
	}
	return nil
}

func (s *LspServer) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI

	s.mu.Lock()
	delete(s.versions, string(uri))
	s.mu.Unlock()
	s.worker.Close(string(uri))

	// Clear diagnostics for the closed document
	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

// newer records version for uri and reports whether it is newer than the
// last one seen.
func (s *LspServer) newer(uri string, version protocol.Integer) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if last, ok := s.versions[uri]; ok && version <= last {
		return false
	}
	s.versions[uri] = version
	return true
}

// --- Diagnostics ---

func (s *LspServer) compileAndPublish(ctx *glsp.Context, uri protocol.DocumentUri, text string) {
	diagnostics := s.compile(string(uri), text)
	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

// compile updates the document and returns its diagnostics in LSP form.
func (s *LspServer) compile(uri, text string) []protocol.Diagnostic {
	snap, err := s.worker.Update(uri, text)
	if err != nil {
		log.Errorf("internal compiler error in %s: %s", uri, err.Error())
		return []protocol.Diagnostic{newDiagnostic(protocol.Range{}, "internal compiler error: "+err.Error())}
	}

	diagnostics := make([]protocol.Diagnostic, 0, len(snap.Diagnostics))
	for _, d := range snap.Diagnostics {
		start := toPosition(d.Pos)
		end := start
		end.Character++
		diagnostics = append(diagnostics, newDiagnostic(protocol.Range{Start: start, End: end}, d.Message))
	}
	log.Debugf("compiled %s: %d diagnostics", uri, len(diagnostics))
	return diagnostics
}

func newDiagnostic(r protocol.Range, message string) protocol.Diagnostic {
	severity := protocol.DiagnosticSeverityError
	source := lspName
	return protocol.Diagnostic{
		Range:    r,
		Severity: &severity,
		Source:   &source,
		Message:  message,
	}
}

// toPosition converts a 1-based source position to a 0-based LSP one.
func toPosition(p compiler.Position) protocol.Position {
	line, col := p.Line-1, p.Column-1
	if line < 0 {
		line = 0
	}
	if col < 0 {
		col = 0
	}
	return protocol.Position{Line: protocol.UInteger(line), Character: protocol.UInteger(col)}
}

// --- Language features ---

func (s *LspServer) textDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	snap := s.worker.Snapshot(string(params.TextDocument.URI))
	if snap == nil {
		return nil, nil
	}
	prefix := extractPrefix(snap.Text, params.Position)
	if prefix == "" {
		return nil, nil
	}
	return complete(snap, prefix), nil
}

func (s *LspServer) textDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	snap := s.worker.Snapshot(string(params.TextDocument.URI))
	if snap == nil {
		return nil, nil
	}
	word := extractWord(snap.Text, params.Position)
	if word == "" {
		return nil, nil
	}
	return hover(snap, word), nil
}

func (s *LspServer) textDocumentDefinition(ctx *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	snap := s.worker.Snapshot(string(params.TextDocument.URI))
	if snap == nil {
		return nil, nil
	}
	word := extractWord(snap.Text, params.Position)
	if word == "" {
		return nil, nil
	}
	locations := definition(snap, word)
	if len(locations) == 0 {
		return nil, nil
	}
	return locations, nil
}

// --- Snapshot-backed logic ---

// signatureName returns the method name inside a signature such as
// "0: foo x:y:".
func signatureName(signature string) string {
	for _, part := range strings.Fields(signature) {
		if !strings.HasSuffix(part, ":") {
			return part
		}
	}
	return ""
}

// complete offers core types and method names starting with prefix.
func complete(snap *Snapshot, prefix string) []protocol.CompletionItem {
	var items []protocol.CompletionItem
	seen := make(map[string]bool)

	core := snap.Runtime.CoreModule()
	for i := 0; i < core.NumExports(); i++ {
		name := core.ExportName(i)
		if strings.HasPrefix(name, prefix) && !seen[name] {
			seen[name] = true
			kind := protocol.CompletionItemKindClass
			detail := "core type"
			items = append(items, protocol.CompletionItem{Label: name, Kind: &kind, Detail: &detail})
		}
	}

	for _, sig := range snap.Runtime.Methods.All() {
		name := signatureName(sig)
		if name == "" || seen[name] || !strings.HasPrefix(name, prefix) {
			continue
		}
		seen[name] = true
		kind := protocol.CompletionItemKindFunction
		detail := sig
		items = append(items, protocol.CompletionItem{Label: name, Kind: &kind, Detail: &detail})
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Label < items[j].Label })

	// Limit results
	const maxItems = 100
	if len(items) > maxItems {
		items = items[:maxItems]
	}
	return items
}

// hover describes a core type or every method signature with the given
// name.
func hover(snap *Snapshot, word string) *protocol.Hover {
	var b strings.Builder

	core := snap.Runtime.CoreModule()
	if export := core.FindExport(word); export >= 0 {
		fmt.Fprintf(&b, "**%s**\n\ncore type", word)
		if t, ok := core.Export(export).(*vm.Type); ok && t.Parent != nil {
			fmt.Fprintf(&b, " < %s", t.Parent.Name)
		}
		return markdown(b.String())
	}

	var found []string
	for slot, sig := range snap.Runtime.Methods.All() {
		if signatureName(sig) != word {
			continue
		}
		line := fmt.Sprintf("- `%s`", sig)
		if m, err := snap.Runtime.Methods.Get(slot); err == nil {
			if m.IsNative() {
				line += " (native)"
			} else if fp, err := vm.Fingerprint(m); err == nil {
				line += fmt.Sprintf(" (%d registers, %s)", m.NumRegisters, fp[:12])
			}
		}
		found = append(found, line)
	}
	if len(found) == 0 {
		return nil
	}

	fmt.Fprintf(&b, "**%s**\n\n", word)
	b.WriteString(strings.Join(found, "\n"))
	return markdown(b.String())
}

func markdown(text string) *protocol.Hover {
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: text,
		},
	}
}

// definition finds the definitions in the document named word.
func definition(snap *Snapshot, word string) []protocol.Location {
	var locations []protocol.Location
	for _, def := range snap.AST.Defs {
		if def.Name != word {
			continue
		}
		span := def.Span()
		locations = append(locations, protocol.Location{
			URI:   protocol.DocumentUri(snap.URI),
			Range: protocol.Range{Start: toPosition(span.Start), End: toPosition(span.End)},
		})
	}
	return locations
}

// --- Text extraction helpers ---

func isNameChar(ch rune) bool {
	return unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_'
}

// extractPrefix returns the word fragment before the cursor for completion.
func extractPrefix(text string, pos protocol.Position) string {
	lines := strings.Split(text, "\n")
	if int(pos.Line) >= len(lines) {
		return ""
	}
	line := lines[pos.Line]
	col := int(pos.Character)
	if col > len(line) {
		col = len(line)
	}

	// Walk backwards from cursor to find the start of the identifier
	start := col
	for start > 0 && isNameChar(rune(line[start-1])) {
		start--
	}
	return line[start:col]
}

// extractWord returns the full identifier under the cursor.
func extractWord(text string, pos protocol.Position) string {
	lines := strings.Split(text, "\n")
	if int(pos.Line) >= len(lines) {
		return ""
	}
	line := lines[pos.Line]
	col := int(pos.Character)
	if col > len(line) {
		col = len(line)
	}

	start := col
	for start > 0 && isNameChar(rune(line[start-1])) {
		start--
	}
	end := col
	for end < len(line) && isNameChar(rune(line[end])) {
		end++
	}
	return line[start:end]
}

func boolPtr(b bool) *bool {
	return &b
}

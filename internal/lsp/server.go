package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/kpumuk/thriftfmt/internal/config"
	"github.com/kpumuk/thriftfmt/internal/format"
	"github.com/kpumuk/thriftfmt/internal/logging"
)

// Server is a thrift LSP server with an in-memory snapshot store.
type Server struct {
	store     *SnapshotStore
	formatter *format.Formatter

	mu            sync.Mutex
	baseOptions   format.Options
	options       format.Options
	canceled      map[string]struct{}
	shutdown      bool
	exitRequested bool
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithFormatOptions sets the options used before any client configuration
// arrives, typically resolved from a project config file.
func WithFormatOptions(opts format.Options) ServerOption {
	return func(s *Server) {
		s.baseOptions = opts
		s.options = opts
	}
}

// WithFormatter replaces the formatter used by formatting requests.
func WithFormatter(f *format.Formatter) ServerOption {
	return func(s *Server) {
		if f != nil {
			s.formatter = f
		}
	}
}

// NewServer creates a new LSP server instance.
func NewServer(opts ...ServerOption) *Server {
	s := &Server{
		store:       NewSnapshotStore(),
		formatter:   format.New(),
		baseOptions: format.DefaultOptions(),
		options:     format.DefaultOptions(),
		canceled:    make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the backing snapshot store (primarily for tests).
func (s *Server) Store() *SnapshotStore {
	if s == nil {
		return nil
	}
	return s.store
}

// Options returns the formatter options currently in effect.
func (s *Server) Options() format.Options {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.options
}

// Run serves JSON-RPC/LSP messages using Content-Length framing.
func (s *Server) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	if s == nil {
		return errors.New("nil Server")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	br := bufio.NewReader(in)
	bw := bufio.NewWriter(out)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		body, err := readFramedMessage(br)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			_ = s.writeErrorResponse(bw, nil, jsonRPCParseError, err.Error())
			_ = bw.Flush()
			continue
		}
		if len(body) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(body, &req); err != nil {
			_ = s.writeErrorResponse(bw, nil, jsonRPCParseError, err.Error())
			_ = bw.Flush()
			continue
		}
		if req.JSONRPC != "" && req.JSONRPC != JSONRPCVersion {
			_ = s.writeErrorResponse(bw, req.ID, jsonRPCInvalidRequest, "unsupported jsonrpc version")
			_ = bw.Flush()
			continue
		}
		if req.Method == "" {
			// Client responses are not used.
			continue
		}

		if err := s.dispatch(ctx, bw, req); err != nil {
			if errors.Is(err, ErrShutdownRequested) {
				return bw.Flush()
			}
			return err
		}
		if err := bw.Flush(); err != nil {
			return err
		}
	}
}

//nolint:funcorder // dispatch is kept near Run for readability of request flow.
func (s *Server) dispatch(ctx context.Context, w *bufio.Writer, req Request) error {
	isRequest := len(req.ID) != 0
	logging.FromContext(ctx).Debug("lsp message", logging.FieldMethod, req.Method)

	writeResp := func(result any) error {
		if !isRequest {
			return nil
		}
		return s.writeResponse(w, Response{JSONRPC: JSONRPCVersion, ID: req.ID, Result: result})
	}
	writeErr := func(code int, msg string) error {
		if !isRequest {
			return nil
		}
		return s.writeErrorResponse(w, req.ID, code, msg)
	}

	if isRequest && s.takeCanceled(req.ID) {
		return writeErr(lspErrorRequestCancelled, "request cancelled")
	}
	if isRequest && req.Method != "shutdown" && s.isShutdown() {
		return writeErr(jsonRPCInvalidRequest, "server is shutting down")
	}

	switch req.Method {
	case "initialize":
		var p InitializeParams
		if len(req.Params) > 0 {
			if err := json.Unmarshal(req.Params, &p); err != nil {
				return writeErr(jsonRPCInvalidParams, err.Error())
			}
		}
		res, err := s.Initialize(ctx, p)
		if err != nil {
			return writeErr(jsonRPCInternalError, err.Error())
		}
		return writeResp(res)
	case "initialized":
		return nil
	case "shutdown":
		if err := s.Shutdown(ctx); err != nil {
			return writeErr(jsonRPCInternalError, err.Error())
		}
		return writeResp(struct{}{})
	case "exit":
		s.Exit()
		return ErrShutdownRequested
	case "$/cancelRequest":
		var p CancelParams
		if err := json.Unmarshal(req.Params, &p); err == nil && len(p.ID) > 0 {
			s.cancel(p.ID)
		}
		return nil
	case "workspace/didChangeConfiguration":
		if err := s.DidChangeConfiguration(ctx, req.Params); err != nil {
			logging.FromContext(ctx).Warn("ignoring formatter settings", logging.FieldError, err)
		}
		return nil
	case "textDocument/didOpen":
		var p DidOpenParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return writeErr(jsonRPCInvalidParams, err.Error())
		}
		if err := s.DidOpen(ctx, p); err != nil {
			return writeErr(jsonRPCInternalError, err.Error())
		}
		return s.publishDiagnostics(w, p.TextDocument.URI)
	case "textDocument/didChange":
		var p DidChangeParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return writeErr(jsonRPCInvalidParams, err.Error())
		}
		if err := s.DidChange(ctx, p); err != nil {
			logging.FromContext(ctx).Warn("didChange rejected",
				logging.FieldURI, p.TextDocument.URI,
				logging.FieldVersion, p.TextDocument.Version,
				logging.FieldError, err,
			)
			return writeErr(requestErrorCode(err), err.Error())
		}
		return s.publishDiagnostics(w, p.TextDocument.URI)
	case "textDocument/didClose":
		var p DidCloseParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return writeErr(jsonRPCInvalidParams, err.Error())
		}
		if err := s.DidClose(ctx, p); err != nil {
			return writeErr(jsonRPCInternalError, err.Error())
		}
		return s.publishDiagnostics(w, p.TextDocument.URI)
	case "textDocument/formatting":
		var p DocumentFormattingParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return writeErr(jsonRPCInvalidParams, err.Error())
		}
		edits, err := s.Formatting(ctx, p)
		if err != nil {
			return writeErr(requestErrorCode(err), err.Error())
		}
		return writeResp(edits)
	case "textDocument/rangeFormatting":
		var p DocumentRangeFormattingParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return writeErr(jsonRPCInvalidParams, err.Error())
		}
		edits, err := s.RangeFormatting(ctx, p)
		if err != nil {
			return writeErr(requestErrorCode(err), err.Error())
		}
		return writeResp(edits)
	default:
		if strings.HasPrefix(req.Method, "$/") {
			return nil
		}
		return writeErr(jsonRPCMethodNotFound, "method not found")
	}
}

// Initialize handles the LSP initialize request. Formatter settings passed as
// initialization options are applied like a configuration change.
func (s *Server) Initialize(ctx context.Context, p InitializeParams) (InitializeResult, error) {
	if len(p.InitializationOptions) > 0 && string(p.InitializationOptions) != "null" {
		if err := s.DidChangeConfiguration(ctx, p.InitializationOptions); err != nil {
			return InitializeResult{}, fmt.Errorf("initializationOptions: %w", err)
		}
	}
	return InitializeResult{Capabilities: DefaultServerCapabilities()}, nil
}

// DidChangeConfiguration applies the "settings.thrift.format" section of a
// configuration payload on top of the server's base options. Invalid settings
// leave the current options unchanged.
func (s *Server) DidChangeConfiguration(ctx context.Context, params json.RawMessage) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	opts, err := config.ApplySettings(s.baseOptions, params)
	if err != nil {
		return err
	}
	s.options = opts
	return nil
}

// Shutdown handles the LSP shutdown request. It is idempotent.
func (s *Server) Shutdown(ctx context.Context) error {
	_ = ctx
	if s == nil {
		return errors.New("nil Server")
	}
	s.mu.Lock()
	s.shutdown = true
	s.mu.Unlock()
	return nil
}

// Exit handles the LSP exit notification.
func (s *Server) Exit() {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.exitRequested = true
	s.mu.Unlock()
}

// DidOpen parses and stores the opened document snapshot.
func (s *Server) DidOpen(ctx context.Context, p DidOpenParams) error {
	store, err := s.requireStore()
	if err != nil {
		return err
	}
	_, err = store.Open(ctx, p.TextDocument.URI, p.TextDocument.Version, []byte(p.TextDocument.Text))
	return err
}

// DidChange applies text changes and stores the reparsed snapshot.
func (s *Server) DidChange(ctx context.Context, p DidChangeParams) error {
	store, err := s.requireStore()
	if err != nil {
		return err
	}
	_, err = store.Change(ctx, p.TextDocument.URI, p.TextDocument.Version, p.ContentChanges)
	return err
}

// DidClose removes the document snapshot if present.
func (s *Server) DidClose(ctx context.Context, p DidCloseParams) error {
	_ = ctx
	store, err := s.requireStore()
	if err != nil {
		return err
	}
	store.Close(p.TextDocument.URI)
	return nil
}

func (s *Server) cancel(id json.RawMessage) {
	s.mu.Lock()
	s.canceled[string(id)] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) takeCanceled(id json.RawMessage) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.canceled[string(id)]; !ok {
		return false
	}
	delete(s.canceled, string(id))
	return true
}

func (s *Server) isShutdown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shutdown
}

func (s *Server) writeResponse(w *bufio.Writer, resp Response) error {
	body, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return writeFramedMessage(w, body)
}

func (s *Server) writeNotification(w *bufio.Writer, method string, params any) error {
	raw, err := json.Marshal(params)
	if err != nil {
		return err
	}
	body, err := json.Marshal(Request{JSONRPC: JSONRPCVersion, Method: method, Params: raw})
	if err != nil {
		return err
	}
	return writeFramedMessage(w, body)
}

func (s *Server) writeErrorResponse(w *bufio.Writer, id json.RawMessage, code int, msg string) error {
	return s.writeResponse(w, Response{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Error:   &ResponseError{Code: code, Message: msg},
	})
}

func (s *Server) requireStore() (*SnapshotStore, error) {
	if s == nil || s.store == nil {
		return nil, errors.New("nil Server")
	}
	return s.store, nil
}

func readFramedMessage(r *bufio.Reader) ([]byte, error) {
	contentLen := -1
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, err
		}
		if line == "\r\n" || line == "\n" {
			break
		}
		line = strings.TrimRight(line, "\r\n")
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("invalid header line %q", line)
		}
		if strings.EqualFold(strings.TrimSpace(name), "Content-Length") {
			var n int
			if _, err := fmt.Sscanf(strings.TrimSpace(value), "%d", &n); err != nil || n < 0 {
				return nil, fmt.Errorf("invalid Content-Length %q", value)
			}
			contentLen = n
		}
	}
	if contentLen < 0 {
		return nil, errors.New("missing Content-Length")
	}
	body := make([]byte, contentLen)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}
	return body, nil
}

func writeFramedMessage(w io.Writer, body []byte) error {
	if _, err := fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(body)); err != nil {
		return err
	}
	_, err := w.Write(body)
	return err
}

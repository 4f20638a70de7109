package lsp

import (
	"context"
	"errors"

	"github.com/kpumuk/thriftfmt/internal/format"
)

const (
	jsonRPCParseError     = -32700
	jsonRPCInvalidRequest = -32600
	jsonRPCMethodNotFound = -32601
	jsonRPCInvalidParams  = -32602
	jsonRPCInternalError  = -32603

	lspErrorRequestCancelled = -32800
	// lspErrorContentModified answers a request for a version that is no longer current.
	lspErrorContentModified = -32801
	// lspErrorRequestFailed answers a formatting request the formatter refused.
	lspErrorRequestFailed = -32803
)

var (
	// ErrShutdownRequested is returned internally after the exit notification.
	ErrShutdownRequested = errors.New("lsp server exit requested")
	// ErrDocumentNotOpen indicates a request referenced an untracked document.
	ErrDocumentNotOpen = errors.New("document is not open")
	// ErrStaleVersion indicates a version that does not match the current snapshot.
	ErrStaleVersion = errors.New("stale document version")
)

// requestErrorCode maps a document request failure to its JSON-RPC code.
func requestErrorCode(err error) int {
	switch {
	case errors.Is(err, ErrStaleVersion):
		return lspErrorContentModified
	case errors.Is(err, context.Canceled):
		return lspErrorRequestCancelled
	case errors.Is(err, ErrDocumentNotOpen):
		return jsonRPCInvalidParams
	case format.IsErrUnsafeToFormat(err):
		return lspErrorRequestFailed
	default:
		return jsonRPCInternalError
	}
}

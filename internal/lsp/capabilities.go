package lsp

// DefaultServerCapabilities returns the capability set advertised by thriftls.
func DefaultServerCapabilities() ServerCapabilities {
	return ServerCapabilities{
		TextDocumentSync: TextDocumentSyncOptions{
			OpenClose: true,
			Change:    TextDocumentSyncKindIncremental,
		},
		DocumentFormattingProvider:      true,
		DocumentRangeFormattingProvider: true,
	}
}

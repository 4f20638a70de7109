package logging

// Structured field names shared by the CLI, the language server and the formatter.
const (
	FieldError  = "error"
	FieldPath   = "path"
	FieldConfig = "config"
	FieldJobs   = "jobs"

	// Formatter failure reports.
	FieldComponent     = "component"
	FieldOperation     = "operation"
	FieldContentLength = "content_length"

	// Language server.
	FieldURI     = "uri"
	FieldMethod  = "method"
	FieldVersion = "version"

	// Run summary.
	FieldFilesProcessed = "files_processed"
	FieldFilesChanged   = "files_changed"
	FieldChanged        = "changed"
)

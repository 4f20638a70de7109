package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/kpumuk/thriftfmt/internal/config"
	"github.com/kpumuk/thriftfmt/internal/format"
	"github.com/kpumuk/thriftfmt/internal/lexer"
	"github.com/kpumuk/thriftfmt/internal/logging"
	"github.com/kpumuk/thriftfmt/internal/syntax"
	"github.com/kpumuk/thriftfmt/internal/text"
)

const (
	exitOK       = 0
	exitCheck    = 1
	exitUnsafe   = 2
	exitInternal = 3
)

type cliOptions struct {
	write          bool
	check          bool
	diff           bool
	stdin          bool
	assumeFilename string
	rangeSpec      string
	configPath     string
	color          string
	jobs           int
	debug          bool
	debugTokens    bool
	debugDecls     bool
	paths          []string
}

// optionFlag binds a command-line flag to a config key.
type optionFlag struct {
	name  string
	key   string
	usage string
}

var optionFlags = []optionFlag{
	{"trailing-comma", "trailingComma", "field/member terminator policy: preserve, add, remove"},
	{"align-types", "alignTypes", "align field types"},
	{"align-field-names", "alignFieldNames", "align field and const names"},
	{"align-struct-defaults", "alignStructDefaults", "align '=' of field defaults and consts"},
	{"align-annotations", "alignAnnotations", "align trailing annotations"},
	{"align-comments", "alignComments", "align trailing comments"},
	{"align-enum-names", "alignEnumNames", "align enum member names"},
	{"align-enum-equals", "alignEnumEquals", "align enum '='"},
	{"align-enum-values", "alignEnumValues", "align enum values"},
	{"indent-size", "indentSize", "spaces per indentation level"},
	{"max-line-length", "maxLineLength", "line width used by collection auto style"},
	{"collection-style", "collectionStyle", "const collections: preserve, multiline, auto"},
	{"insert-spaces", "insertSpaces", "indent with spaces instead of tabs"},
	{"tab-size", "tabSize", "display width of a tab"},
}

type fileResult struct {
	path    string
	output  []byte
	changed bool
	diff    string
	code    int
	stderr  string
}

func run(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, args []string) int {
	var (
		opts cliOptions
		code = exitOK
	)

	cmd := &cobra.Command{
		Use:   "thriftfmt [flags] [path ...]",
		Short: "Format Thrift IDL files",
		Long: `thriftfmt aligns the fields of structs, enums and consts, normalizes
spacing and expands single-line definitions in Thrift IDL files.

Options are read from the nearest .thriftfmt.yaml, then from --config,
then from command-line flags.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.paths = args
			if err := validateArgs(opts); err != nil {
				return err
			}
			level := "info"
			if opts.debug {
				level = "debug"
			}
			ctx := logging.WithLogger(cmd.Context(), logging.NewWithWriter(stderr, level))
			fopts, err := resolveOptions(ctx, cmd.Flags(), opts)
			if err != nil {
				return err
			}
			code = execute(ctx, stdin, stdout, stderr, opts, fopts)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	fs := cmd.Flags()
	fs.SortFlags = false
	fs.BoolVarP(&opts.write, "write", "w", false, "write result in-place")
	fs.BoolVar(&opts.check, "check", false, "exit with status 1 if formatting changes are needed")
	fs.BoolVar(&opts.diff, "diff", false, "print a unified diff instead of the formatted output")
	fs.BoolVar(&opts.stdin, "stdin", false, "read input from stdin")
	fs.StringVar(&opts.assumeFilename, "assume-filename", "", "file name used for stdin diagnostics and config discovery")
	fs.StringVar(&opts.rangeSpec, "range", "", "format only lines start:end (1-based, inclusive)")
	fs.StringVar(&opts.configPath, "config", "", "path to a config file")
	fs.StringVar(&opts.color, "color", "auto", "colorize diffs: auto, always, never")
	fs.IntVarP(&opts.jobs, "jobs", "j", 0, "files formatted in parallel (0 means one per CPU)")
	fs.BoolVar(&opts.debug, "debug", false, "enable debug logging")
	fs.BoolVar(&opts.debugTokens, "debug-tokens", false, "dump lexer tokens")
	fs.BoolVar(&opts.debugDecls, "debug-decls", false, "dump parsed declarations")
	registerOptionFlags(fs)

	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		writef(stderr, "thriftfmt: %v\n\n%s", err, cmd.UsageString())
		return exitInternal
	}
	return code
}

func registerOptionFlags(fs *pflag.FlagSet) {
	defaults := format.DefaultOptions()
	for _, f := range optionFlags {
		switch f.key {
		case "trailingComma":
			fs.String(f.name, string(defaults.TrailingComma), f.usage)
		case "collectionStyle":
			fs.String(f.name, string(defaults.CollectionStyle), f.usage)
		case "indentSize":
			fs.Int(f.name, defaults.IndentSize, f.usage)
		case "maxLineLength":
			fs.Int(f.name, defaults.MaxLineLength, f.usage)
		case "tabSize":
			fs.Int(f.name, defaults.TabSize, f.usage)
		default:
			def := true
			if f.key == "alignStructDefaults" {
				def = defaults.AlignStructDefaults
			}
			fs.Bool(f.name, def, f.usage)
		}
	}
}

func validateArgs(opts cliOptions) error {
	switch {
	case opts.stdin && opts.write:
		return errors.New("--write and --stdin may not be used together")
	case opts.check && opts.write:
		return errors.New("--check and --write may not be used together")
	case opts.diff && opts.write:
		return errors.New("--diff and --write may not be used together")
	case opts.stdin && len(opts.paths) > 0:
		return errors.New("positional file paths are not allowed with --stdin")
	case !opts.stdin && len(opts.paths) == 0:
		return errors.New("at least one input file path is required (or use --stdin)")
	case opts.rangeSpec != "" && len(opts.paths) > 1:
		return errors.New("--range requires a single input")
	case opts.jobs < 0:
		return fmt.Errorf("invalid --jobs %d", opts.jobs)
	}
	switch opts.color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("invalid --color %q (want auto, always or never)", opts.color)
	}
	return nil
}

// resolveOptions layers the config files and the explicitly set option flags.
func resolveOptions(ctx context.Context, fs *pflag.FlagSet, opts cliOptions) (format.Options, error) {
	workDir := ""
	switch {
	case opts.stdin && opts.assumeFilename != "":
		workDir = filepath.Dir(opts.assumeFilename)
	case len(opts.paths) > 0:
		workDir = filepath.Dir(opts.paths[0])
	}

	res, err := config.Load(ctx, config.LoadOptions{
		WorkingDir:   workDir,
		ExplicitPath: opts.configPath,
	})
	if err != nil {
		return format.Options{}, err
	}
	logger := logging.FromContext(ctx)
	for _, path := range res.LoadedFrom {
		logger.Debug("loaded config", logging.FieldConfig, path)
	}

	fopts := res.Options
	var errs []error
	for _, f := range optionFlags {
		flag := fs.Lookup(f.name)
		if flag == nil || !flag.Changed {
			continue
		}
		if err := config.Set(&fopts, f.key, flag.Value.String()); err != nil {
			errs = append(errs, fmt.Errorf("--%s: %w", f.name, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return format.Options{}, err
	}
	return fopts, nil
}

func execute(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, opts cliOptions, fopts format.Options) int {
	var lines *text.LineRange
	if opts.rangeSpec != "" {
		r, err := parseRangeFlag(opts.rangeSpec)
		if err != nil {
			writef(stderr, "thriftfmt: invalid --range: %v\n", err)
			return exitInternal
		}
		lines = &r
	}

	var results []fileResult
	if opts.stdin {
		src, err := io.ReadAll(stdin)
		if err != nil {
			writef(stderr, "thriftfmt: read stdin: %v\n", err)
			return exitInternal
		}
		name := opts.assumeFilename
		if name == "" {
			name = "stdin.thrift"
		}
		dumpDebug(ctx, stdout, opts, name, src)
		results = []fileResult{formatSource(ctx, name, src, lines, opts, fopts)}
	} else {
		results = formatFiles(ctx, stdout, opts, fopts, lines)
	}

	return report(stdout, stderr, logging.FromContext(ctx), opts, results)
}

// formatFiles formats every path on a bounded pool. Results keep argument order.
func formatFiles(ctx context.Context, stdout io.Writer, opts cliOptions, fopts format.Options, lines *text.LineRange) []fileResult {
	results := make([]fileResult, len(opts.paths))
	jobs := opts.jobs
	if jobs == 0 {
		jobs = defaultJobs()
	}
	logging.FromContext(ctx).Debug("formatting files", logging.FieldJobs, jobs, logging.FieldFilesProcessed, len(opts.paths))

	if opts.debugTokens || opts.debugDecls {
		// Debug dumps go to stdout and must not interleave.
		jobs = 1
	}

	p := pool.New().WithMaxGoroutines(jobs)
	for i, path := range opts.paths {
		i := i
		path := path
		p.Go(func() {
			src, err := os.ReadFile(filepath.Clean(path))
			if err != nil {
				results[i] = fileResult{path: path, code: exitInternal, stderr: fmt.Sprintf("thriftfmt: read %s: %v\n", path, err)}
				return
			}
			dumpDebug(ctx, stdout, opts, path, src)
			res := formatSource(ctx, path, src, lines, opts, fopts)
			if res.code == exitOK && opts.write && res.changed {
				if err := WriteAtomic(ctx, path, res.output, 0); err != nil {
					res.code = exitInternal
					res.stderr = fmt.Sprintf("thriftfmt: write %s: %v\n", path, err)
				}
			}
			results[i] = res
		})
	}
	p.Wait()
	return results
}

func formatSource(ctx context.Context, path string, src []byte, lines *text.LineRange, opts cliOptions, fopts format.Options) fileResult {
	res := fileResult{path: path}
	logger := logging.FromContext(ctx)

	var (
		out   []byte
		diags []syntax.Diagnostic
		err   error
	)
	if lines == nil {
		var fr format.Result
		fr, err = format.Source(ctx, src, fopts)
		out, diags = fr.Output, fr.Diagnostics
	} else {
		var rr format.RangeResult
		rr, err = format.Range(ctx, src, *lines, fopts)
		diags = rr.Diagnostics
		if err == nil {
			out, err = text.ApplyEdits(src, rr.Edits)
		}
	}
	if err != nil {
		res.code = exitInternal
		if format.IsErrUnsafeToFormat(err) {
			res.code = exitUnsafe
		}
		res.stderr = formatDiagnostics(path, "error", diags) + fmt.Sprintf("thriftfmt: %s: %v\n", path, err)
		return res
	}

	res.output = out
	res.changed = string(out) != string(src)
	// The formatter degrades around syntax errors instead of refusing, so
	// they are reported alongside the output.
	res.stderr = formatDiagnostics(path, "warning", diags)
	if opts.diff && res.changed {
		res.diff = unifiedDiff(path, src, out)
	}
	logger.Debug("formatted", logging.FieldPath, path, logging.FieldChanged, res.changed)
	return res
}

func report(stdout, stderr io.Writer, logger *log.Logger, opts cliOptions, results []fileResult) int {
	code := exitOK
	changed := 0
	colorize := IsColorEnabled(opts.color, stdout)
	for _, res := range results {
		writeString(stderr, res.stderr)
		code = max(code, res.code)
		if res.code != exitOK {
			continue
		}
		if res.changed {
			changed++
		}
		switch {
		case opts.diff:
			writeString(stdout, colorDiff(res.diff, colorize))
		case opts.check:
			if res.changed {
				writef(stderr, "%s: needs formatting\n", res.path)
			}
		case opts.write:
		default:
			_, _ = stdout.Write(res.output)
		}
	}
	if (opts.check || opts.diff) && changed > 0 {
		code = max(code, exitCheck)
	}
	logger.Debug("done", logging.FieldFilesProcessed, len(results), logging.FieldFilesChanged, changed)
	return code
}

func formatDiagnostics(path, level string, diags []syntax.Diagnostic) string {
	var b strings.Builder
	for _, d := range diags {
		writef(&b, "%s:%d: %s: %s (%s/%s)\n", path, d.Line+1, level, d.Message, d.Source, d.Code)
	}
	return b.String()
}

// parseRangeFlag parses "start:end" as 1-based inclusive line numbers.
func parseRangeFlag(s string) (text.LineRange, error) {
	startS, endS, ok := strings.Cut(s, ":")
	if !ok {
		return text.LineRange{}, errors.New("expected start:end")
	}
	start, err := strconv.Atoi(strings.TrimSpace(startS))
	if err != nil || start < 1 {
		return text.LineRange{}, fmt.Errorf("invalid start %q", startS)
	}
	end, err := strconv.Atoi(strings.TrimSpace(endS))
	if err != nil || end < start {
		return text.LineRange{}, fmt.Errorf("invalid end %q", endS)
	}
	return text.LineRange{Start: start - 1, End: end - 1}, nil
}

func dumpDebug(ctx context.Context, w io.Writer, opts cliOptions, path string, src []byte) {
	if opts.debugTokens {
		dumpTokens(w, path, src)
	}
	if opts.debugDecls {
		doc, err := syntax.Parse(ctx, src, syntax.ParseOptions{URI: path})
		if err != nil {
			writef(w, "DECLS %s: %v\n", path, err)
			return
		}
		dumpDecls(w, doc)
	}
}

func dumpTokens(w io.Writer, path string, src []byte) {
	res := lexer.Lex(src)
	writef(w, "TOKENS %s\n", path)
	for i, tok := range res.Tokens {
		writef(w, "[%d] kind=%s line=%d span=%s text=%q\n", i, tok.Kind, tok.Line+1, tok.Span, tok.Text(src))
	}
	for _, c := range res.Comments {
		writef(w, "comment kind=%s line=%d text=%q\n", c.Kind, c.Line+1, c.Text(src))
	}
}

func dumpDecls(w io.Writer, doc *syntax.Document) {
	writef(w, "DECLS %s\n", doc.URI)
	for i, d := range doc.Body {
		writef(w, "[%d] %s %s lines=%d..%d fields=%d members=%d functions=%d\n",
			i, d.Kind, d.Name, d.Range.Start.Line+1, d.Range.End.Line+1,
			len(d.Fields), len(d.Members), len(d.Functions))
	}
	for _, diag := range doc.Diagnostics {
		writef(w, "diagnostic %s\n", diag)
	}
}

func writef(w io.Writer, format string, args ...any) {
	//nolint:gosec // Terminal/debug output helper; format strings are internal callsite constants.
	_, _ = io.WriteString(w, fmt.Sprintf(format, args...))
}

func writeString(w io.Writer, s string) {
	if s == "" {
		return
	}
	_, _ = io.WriteString(w, s)
}

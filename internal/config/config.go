// Package config resolves formatter options from project files, explicit
// config files and editor or command-line overrides.
package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kpumuk/thriftfmt/internal/format"
)

// Project config file names, in lookup order.
var projectFiles = []string{".thriftfmt.yaml", ".thriftfmt.yml"}

var vcsRootMarkers = []string{".git", ".hg", ".svn"}

// LoadOptions controls option resolution.
type LoadOptions struct {
	// WorkingDir is where project config discovery starts. Defaults to the
	// current working directory.
	WorkingDir string

	// ExplicitPath is a config file named with --config. It is applied on
	// top of the discovered project file.
	ExplicitPath string

	// SkipDiscovery disables the upward search for a project file.
	SkipDiscovery bool
}

// Result is the resolved option set and the files it was read from.
type Result struct {
	Options    format.Options
	LoadedFrom []string
}

// Load resolves options. Precedence, lowest first: defaults, project file,
// explicit file. Command-line overrides are applied by the caller with Set.
func Load(ctx context.Context, opts LoadOptions) (Result, error) {
	res := Result{Options: format.DefaultOptions()}

	if !opts.SkipDiscovery {
		path, err := FindProjectConfig(ctx, opts.WorkingDir)
		if err != nil {
			return Result{}, err
		}
		if path != "" {
			if res.Options, err = DecodeFile(path, res.Options); err != nil {
				return Result{}, err
			}
			res.LoadedFrom = append(res.LoadedFrom, path)
		}
	}

	if opts.ExplicitPath != "" {
		var err error
		if res.Options, err = DecodeFile(opts.ExplicitPath, res.Options); err != nil {
			return Result{}, err
		}
		res.LoadedFrom = append(res.LoadedFrom, opts.ExplicitPath)
	}
	return res, nil
}

// FindProjectConfig searches upward from startDir for a project config file.
// The search stops at a VCS root or the filesystem root. An empty path means
// no file was found.
func FindProjectConfig(ctx context.Context, startDir string) (string, error) {
	if startDir == "" {
		var err error
		if startDir, err = os.Getwd(); err != nil {
			return "", fmt.Errorf("get working directory: %w", err)
		}
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path: %w", err)
	}

	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		for _, name := range projectFiles {
			path := filepath.Join(dir, name)
			if fileExists(path) {
				return path, nil
			}
		}
		if isVCSRoot(dir) {
			return "", nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// DecodeFile reads path and applies it on top of base.
func DecodeFile(path string, base format.Options) (format.Options, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return format.Options{}, fmt.Errorf("read config: %w", err)
	}
	opts, err := Decode(bytes.NewReader(data), base)
	if err != nil {
		return format.Options{}, fmt.Errorf("%s: %w", path, err)
	}
	return opts, nil
}

// Decode applies a YAML document on top of base. Keys absent from the
// document keep their base values; unknown keys are rejected.
func Decode(r io.Reader, base format.Options) (format.Options, error) {
	opts := base
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&opts); err != nil {
		if errors.Is(err, io.EOF) {
			return base, nil
		}
		return format.Options{}, fmt.Errorf("decode config: %w", err)
	}
	if err := format.ValidateOptions(opts); err != nil {
		return format.Options{}, err
	}
	return opts, nil
}

// Keys lists the option keys accepted by Set, in display order.
func Keys() []string {
	keys := make([]string, len(setters))
	for i, s := range setters {
		keys[i] = s.key
	}
	return keys
}

type setter struct {
	key string
	set func(*format.Options, string) error
}

var setters = []setter{
	{"trailingComma", func(o *format.Options, v string) error {
		o.TrailingComma = format.TrailingCommaPolicy(strings.ToLower(v))
		return nil
	}},
	{"alignTypes", boolSetter(func(o *format.Options) *bool { return &o.AlignTypes })},
	{"alignFieldNames", boolSetter(func(o *format.Options) *bool { return &o.AlignFieldNames })},
	{"alignStructDefaults", boolSetter(func(o *format.Options) *bool { return &o.AlignStructDefaults })},
	{"alignAnnotations", boolSetter(func(o *format.Options) *bool { return &o.AlignAnnotations })},
	{"alignComments", boolSetter(func(o *format.Options) *bool { return &o.AlignComments })},
	{"alignEnumNames", boolSetter(func(o *format.Options) *bool { return &o.AlignEnumNames })},
	{"alignEnumEquals", boolSetter(func(o *format.Options) *bool { return &o.AlignEnumEquals })},
	{"alignEnumValues", boolSetter(func(o *format.Options) *bool { return &o.AlignEnumValues })},
	{"indentSize", intSetter(func(o *format.Options) *int { return &o.IndentSize })},
	{"maxLineLength", intSetter(func(o *format.Options) *int { return &o.MaxLineLength })},
	{"collectionStyle", func(o *format.Options, v string) error {
		o.CollectionStyle = format.CollectionStyle(strings.ToLower(v))
		return nil
	}},
	{"insertSpaces", boolSetter(func(o *format.Options) *bool { return &o.InsertSpaces })},
	{"tabSize", intSetter(func(o *format.Options) *int { return &o.TabSize })},
}

// Set assigns a single option from its string form. Keys match the YAML
// config keys (see Keys).
func Set(opts *format.Options, key, value string) error {
	for _, s := range setters {
		if s.key != key {
			continue
		}
		next := *opts
		if err := s.set(&next, strings.TrimSpace(value)); err != nil {
			return fmt.Errorf("option %s: %w", key, err)
		}
		if err := format.ValidateOptions(next); err != nil {
			return fmt.Errorf("option %s: %w", key, err)
		}
		*opts = next
		return nil
	}
	return fmt.Errorf("unknown option %q", key)
}

func boolSetter(field func(*format.Options) *bool) func(*format.Options, string) error {
	return func(o *format.Options, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid boolean %q", v)
		}
		*field(o) = b
		return nil
	}
}

func intSetter(field func(*format.Options) *int) func(*format.Options, string) error {
	return func(o *format.Options, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid integer %q", v)
		}
		*field(o) = n
		return nil
	}
}

func isVCSRoot(dir string) bool {
	for _, marker := range vcsRootMarkers {
		info, err := os.Stat(filepath.Join(dir, marker))
		if err == nil && info.IsDir() {
			return true
		}
	}
	return false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

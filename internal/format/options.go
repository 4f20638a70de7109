package format

import (
	"fmt"
	"strings"
)

const (
	defaultIndentSize    = 4
	defaultTabSize       = 4
	defaultMaxLineLength = 100
)

// TrailingCommaPolicy controls the terminator of struct fields and enum members.
type TrailingCommaPolicy string

// TrailingCommaPolicy values.
const (
	TrailingCommaPreserve TrailingCommaPolicy = "preserve"
	TrailingCommaAdd      TrailingCommaPolicy = "add"
	TrailingCommaRemove   TrailingCommaPolicy = "remove"
)

// CollectionStyle controls expansion of list/map const values.
type CollectionStyle string

// CollectionStyle values.
const (
	CollectionPreserve  CollectionStyle = "preserve"
	CollectionMultiline CollectionStyle = "multiline"
	CollectionAuto      CollectionStyle = "auto"
)

// Context is the block state in effect at the first line of a formatted range.
type Context struct {
	IndentLevel int  `yaml:"indentLevel" json:"indentLevel"`
	InStruct    bool `yaml:"inStruct" json:"inStruct"`
	InEnum      bool `yaml:"inEnum" json:"inEnum"`
	InService   bool `yaml:"inService" json:"inService"`
}

// Options configure formatter behavior. Start from DefaultOptions: the zero
// value disables every alignment column.
type Options struct {
	TrailingComma       TrailingCommaPolicy `yaml:"trailingComma" json:"trailingComma"`
	AlignTypes          bool                `yaml:"alignTypes" json:"alignTypes"`
	AlignFieldNames     bool                `yaml:"alignFieldNames" json:"alignFieldNames"`
	AlignStructDefaults bool                `yaml:"alignStructDefaults" json:"alignStructDefaults"`
	AlignAnnotations    bool                `yaml:"alignAnnotations" json:"alignAnnotations"`
	AlignComments       bool                `yaml:"alignComments" json:"alignComments"`
	AlignEnumNames      bool                `yaml:"alignEnumNames" json:"alignEnumNames"`
	AlignEnumEquals     bool                `yaml:"alignEnumEquals" json:"alignEnumEquals"`
	AlignEnumValues     bool                `yaml:"alignEnumValues" json:"alignEnumValues"`
	IndentSize          int                 `yaml:"indentSize" json:"indentSize"`
	MaxLineLength       int                 `yaml:"maxLineLength" json:"maxLineLength"`
	CollectionStyle     CollectionStyle     `yaml:"collectionStyle" json:"collectionStyle"`
	InsertSpaces        bool                `yaml:"insertSpaces" json:"insertSpaces"`
	TabSize             int                 `yaml:"tabSize" json:"tabSize"`

	// InitialContext seeds the block state for range formatting.
	InitialContext *Context `yaml:"-" json:"-"`
}

// DefaultOptions returns the documented default option set.
func DefaultOptions() Options {
	return Options{
		TrailingComma:       TrailingCommaPreserve,
		AlignTypes:          true,
		AlignFieldNames:     true,
		AlignStructDefaults: false,
		AlignAnnotations:    true,
		AlignComments:       true,
		AlignEnumNames:      true,
		AlignEnumEquals:     true,
		AlignEnumValues:     true,
		IndentSize:          defaultIndentSize,
		MaxLineLength:       defaultMaxLineLength,
		CollectionStyle:     CollectionPreserve,
		InsertSpaces:        true,
		TabSize:             defaultTabSize,
	}
}

// ValidateOptions reports whether opts can be used for formatting.
func ValidateOptions(opts Options) error {
	_, err := normalizeOptions(opts)
	return err
}

func normalizeOptions(opts Options) (Options, error) {
	if opts.IndentSize < 0 {
		return Options{}, fmt.Errorf("invalid IndentSize %d", opts.IndentSize)
	}
	if opts.TabSize < 0 {
		return Options{}, fmt.Errorf("invalid TabSize %d", opts.TabSize)
	}
	if opts.MaxLineLength < 0 {
		return Options{}, fmt.Errorf("invalid MaxLineLength %d", opts.MaxLineLength)
	}
	if opts.IndentSize == 0 {
		opts.IndentSize = defaultIndentSize
	}
	if opts.TabSize == 0 {
		opts.TabSize = defaultTabSize
	}
	if opts.MaxLineLength == 0 {
		opts.MaxLineLength = defaultMaxLineLength
	}

	switch TrailingCommaPolicy(strings.ToLower(string(opts.TrailingComma))) {
	case "", TrailingCommaPreserve:
		opts.TrailingComma = TrailingCommaPreserve
	case TrailingCommaAdd:
		opts.TrailingComma = TrailingCommaAdd
	case TrailingCommaRemove:
		opts.TrailingComma = TrailingCommaRemove
	default:
		return Options{}, fmt.Errorf("invalid TrailingComma %q (want preserve, add or remove)", opts.TrailingComma)
	}

	switch CollectionStyle(strings.ToLower(string(opts.CollectionStyle))) {
	case "", CollectionPreserve:
		opts.CollectionStyle = CollectionPreserve
	case CollectionMultiline:
		opts.CollectionStyle = CollectionMultiline
	case CollectionAuto:
		opts.CollectionStyle = CollectionAuto
	default:
		return Options{}, fmt.Errorf("invalid CollectionStyle %q (want preserve, multiline or auto)", opts.CollectionStyle)
	}

	if c := opts.InitialContext; c != nil && c.IndentLevel < 0 {
		return Options{}, fmt.Errorf("invalid InitialContext.IndentLevel %d", c.IndentLevel)
	}
	return opts, nil
}

// indentUnit is one level of indentation.
func (o Options) indentUnit() string {
	if !o.InsertSpaces {
		return "\t"
	}
	return strings.Repeat(" ", o.IndentSize)
}

func (o Options) indent(level int) string {
	if level <= 0 {
		return ""
	}
	return strings.Repeat(o.indentUnit(), level)
}

// indentWidth is the display width of level indentation.
func (o Options) indentWidth(level int) int {
	if level <= 0 {
		return 0
	}
	if !o.InsertSpaces {
		return level * o.TabSize
	}
	return level * o.IndentSize
}

package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kpumuk/thriftfmt/internal/format"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o755))

	res, err := Load(context.Background(), LoadOptions{WorkingDir: dir})
	require.NoError(t, err)
	assert.Equal(t, format.DefaultOptions(), res.Options)
	assert.Empty(t, res.LoadedFrom)
}

func TestLoadDiscoversProjectFileUpward(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))
	writeFile(t, filepath.Join(root, ".thriftfmt.yaml"), "indentSize: 2\ntrailingComma: add\n")
	nested := filepath.Join(root, "idl", "shared")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	res, err := Load(context.Background(), LoadOptions{WorkingDir: nested})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Options.IndentSize)
	assert.Equal(t, format.TrailingCommaAdd, res.Options.TrailingComma)
	assert.True(t, res.Options.AlignTypes, "keys absent from the file keep defaults")
	assert.Equal(t, []string{filepath.Join(root, ".thriftfmt.yaml")}, res.LoadedFrom)
}

func TestFindProjectConfigStopsAtVCSRoot(t *testing.T) {
	t.Parallel()

	outer := t.TempDir()
	writeFile(t, filepath.Join(outer, ".thriftfmt.yml"), "indentSize: 8\n")
	repo := filepath.Join(outer, "repo")
	require.NoError(t, os.MkdirAll(filepath.Join(repo, ".git"), 0o755))

	path, err := FindProjectConfig(context.Background(), repo)
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestFindProjectConfigPrefersYAMLExtension(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".thriftfmt.yml"), "indentSize: 8\n")
	writeFile(t, filepath.Join(dir, ".thriftfmt.yaml"), "indentSize: 2\n")

	path, err := FindProjectConfig(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ".thriftfmt.yaml"), path)
}

func TestLoadExplicitOverridesProject(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o755))
	writeFile(t, filepath.Join(dir, ".thriftfmt.yaml"), "indentSize: 2\nalignComments: false\n")
	explicit := filepath.Join(dir, "ci", "fmt.yaml")
	writeFile(t, explicit, "indentSize: 3\n")

	res, err := Load(context.Background(), LoadOptions{WorkingDir: dir, ExplicitPath: explicit})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Options.IndentSize)
	assert.False(t, res.Options.AlignComments)
	assert.Len(t, res.LoadedFrom, 2)
}

func TestLoadSkipDiscovery(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".thriftfmt.yaml"), "indentSize: 2\n")

	res, err := Load(context.Background(), LoadOptions{WorkingDir: dir, SkipDiscovery: true})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Options.IndentSize)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	t.Parallel()

	_, err := Load(context.Background(), LoadOptions{
		WorkingDir:    t.TempDir(),
		ExplicitPath:  filepath.Join(t.TempDir(), "missing.yaml"),
		SkipDiscovery: true,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestLoadCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Load(ctx, LoadOptions{WorkingDir: t.TempDir()})
	require.ErrorIs(t, err, context.Canceled)
}

func TestDecode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr string
		check   func(*testing.T, format.Options)
	}{
		{
			name:  "empty document keeps base",
			input: "",
			check: func(t *testing.T, o format.Options) {
				assert.Equal(t, format.DefaultOptions(), o)
			},
		},
		{
			name:  "collection style and tabs",
			input: "collectionStyle: auto\ninsertSpaces: false\ntabSize: 8\n",
			check: func(t *testing.T, o format.Options) {
				assert.Equal(t, format.CollectionAuto, o.CollectionStyle)
				assert.False(t, o.InsertSpaces)
				assert.Equal(t, 8, o.TabSize)
			},
		},
		{name: "unknown key", input: "alignEverything: true\n", wantErr: "alignEverything"},
		{name: "invalid policy", input: "trailingComma: sometimes\n", wantErr: "TrailingComma"},
		{name: "negative width", input: "maxLineLength: -1\n", wantErr: "MaxLineLength"},
		{name: "initial context is not configurable", input: "initialContext: {}\n", wantErr: "initialContext"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Decode(strings.NewReader(tt.input), format.DefaultOptions())
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, got)
		})
	}
}

func TestSet(t *testing.T) {
	t.Parallel()

	opts := format.DefaultOptions()
	require.NoError(t, Set(&opts, "alignTypes", "false"))
	require.NoError(t, Set(&opts, "indentSize", " 2 "))
	require.NoError(t, Set(&opts, "trailingComma", "REMOVE"))
	require.NoError(t, Set(&opts, "collectionStyle", "multiline"))

	assert.False(t, opts.AlignTypes)
	assert.Equal(t, 2, opts.IndentSize)
	assert.Equal(t, format.TrailingCommaRemove, opts.TrailingComma)
	assert.Equal(t, format.CollectionMultiline, opts.CollectionStyle)
}

func TestSetRejectsInvalidValuesWithoutMutating(t *testing.T) {
	t.Parallel()

	opts := format.DefaultOptions()
	for _, tc := range []struct{ key, value, wantErr string }{
		{"alignTypes", "maybe", "invalid boolean"},
		{"indentSize", "wide", "invalid integer"},
		{"tabSize", "-2", "TabSize"},
		{"collectionStyle", "compact", "CollectionStyle"},
		{"lineWidth", "80", "unknown option"},
	} {
		err := Set(&opts, tc.key, tc.value)
		require.Error(t, err, tc.key)
		assert.Contains(t, err.Error(), tc.wantErr)
	}
	assert.Equal(t, format.DefaultOptions(), opts)
}

func TestKeysCoverEveryYAMLKey(t *testing.T) {
	t.Parallel()

	keys := Keys()
	assert.Len(t, keys, 14)
	for _, key := range keys {
		doc := key + ": " + sampleValue(key) + "\n"
		_, err := Decode(strings.NewReader(doc), format.DefaultOptions())
		require.NoError(t, err, key)
	}
}

func sampleValue(key string) string {
	switch key {
	case "trailingComma":
		return "add"
	case "collectionStyle":
		return "auto"
	case "indentSize", "maxLineLength", "tabSize":
		return "2"
	}
	return "false"
}

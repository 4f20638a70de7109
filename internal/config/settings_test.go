package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kpumuk/thriftfmt/internal/format"
)

func TestApplySettings(t *testing.T) {
	t.Parallel()

	params := []byte(`{"settings":{"thrift":{"format":{
		"indentSize": 2,
		"alignComments": false,
		"trailingComma": "add",
		"collectionStyle": null
	}}}}`)

	got, err := ApplySettings(format.DefaultOptions(), params)
	require.NoError(t, err)
	assert.Equal(t, 2, got.IndentSize)
	assert.False(t, got.AlignComments)
	assert.Equal(t, format.TrailingCommaAdd, got.TrailingComma)
	assert.Equal(t, format.CollectionPreserve, got.CollectionStyle)
}

func TestApplySettingsWithoutSection(t *testing.T) {
	t.Parallel()

	base := format.DefaultOptions()
	base.IndentSize = 8
	for _, params := range []string{
		`{}`,
		`{"settings":{"other":{"enabled":true}}}`,
		`{"settings":{"thrift":{"format":null}}}`,
	} {
		got, err := ApplySettings(base, []byte(params))
		require.NoError(t, err, params)
		assert.Equal(t, base, got, params)
	}
}

func TestApplySettingsErrorsKeepBase(t *testing.T) {
	t.Parallel()

	base := format.DefaultOptions()
	tests := []struct {
		params  string
		wantErr string
	}{
		{`{"settings":`, "invalid settings JSON"},
		{`{"settings":{"thrift":{"format":"tabs"}}}`, "must be an object"},
		{`{"settings":{"thrift":{"format":{"indentSize":"wide","tabSize":-1}}}}`, "invalid integer"},
		{`{"settings":{"thrift":{"format":{"unknown":1}}}}`, "unknown option"},
	}
	for _, tt := range tests {
		got, err := ApplySettings(base, []byte(tt.params))
		require.Error(t, err, tt.params)
		assert.Contains(t, err.Error(), tt.wantErr)
		assert.Equal(t, base, got)
	}
}

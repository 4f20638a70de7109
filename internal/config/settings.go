package config

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/kpumuk/thriftfmt/internal/format"
)

// SettingsPath is where editors place formatter options in
// workspace/didChangeConfiguration params.
const SettingsPath = "settings.thrift.format"

// ApplySettings applies the formatter section of a didChangeConfiguration
// payload on top of base. A payload without the section returns base.
func ApplySettings(base format.Options, params []byte) (format.Options, error) {
	if !gjson.ValidBytes(params) {
		return base, errors.New("invalid settings JSON")
	}
	section := gjson.GetBytes(params, SettingsPath)
	if !section.Exists() || section.Type == gjson.Null {
		return base, nil
	}
	if !section.IsObject() {
		return base, fmt.Errorf("%s must be an object", SettingsPath)
	}

	opts := base
	var errs []error
	section.ForEach(func(key, value gjson.Result) bool {
		if value.Type == gjson.Null {
			return true
		}
		if err := Set(&opts, key.String(), value.String()); err != nil {
			errs = append(errs, err)
		}
		return true
	})
	if err := errors.Join(errs...); err != nil {
		return base, err
	}
	return opts, nil
}

// Package config loads mirror configuration from config file and environment.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// NativeCopy selects how messages are copied.
type NativeCopy string

// Copy modes.
const (
	NativeAuto       NativeCopy = "auto"
	NativeAutoLegacy NativeCopy = "auto_LEGACY"
	NativeOn         NativeCopy = "true"
	NativeOff        NativeCopy = "false"
)

// Native reports whether messages should be forwarded natively from
// channel with given noforwards flag.
func (n NativeCopy) Native(noForwards bool) bool {
	switch n {
	case NativeOn:
		return true
	case NativeOff:
		return false
	default:
		return !noForwards
	}
}

// Auto reports whether mode depends on source channel.
func (n NativeCopy) Auto() bool {
	return n == NativeAuto || n == NativeAutoLegacy
}

func parseNativeCopy(v interface{}) (NativeCopy, error) {
	switch v := v.(type) {
	case bool:
		if v {
			return NativeOn, nil
		}
		return NativeOff, nil
	case string:
		switch NativeCopy(v) {
		case NativeAuto, NativeAutoLegacy:
			return NativeCopy(v), nil
		}
	}
	return "", errors.Errorf("unknown value %v", v)
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *NativeCopy) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	r, err := parseNativeCopy(v)
	if err != nil {
		return err
	}
	*n = r
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (n *NativeCopy) UnmarshalYAML(node *yaml.Node) error {
	var v interface{}
	if err := node.Decode(&v); err != nil {
		return err
	}
	r, err := parseNativeCopy(v)
	if err != nil {
		return err
	}
	*n = r
	return nil
}

// File is config file.
type File struct {
	NativeCopy NativeCopy `json:"native_copy" yaml:"native_copy"`
	// ReportErrors enables error notifications through Bot API.
	ReportErrors *bool `json:"report_errors_to_telegram" yaml:"report_errors_to_telegram"`
	// IntervalMS is poll interval in milliseconds.
	IntervalMS int `json:"interval" yaml:"interval"`
	// Limit is history page size.
	Limit int `json:"limit" yaml:"limit"`
}

// Interval returns poll interval.
func (f File) Interval() time.Duration {
	return time.Duration(f.IntervalMS) * time.Millisecond
}

// Report reports whether errors should be sent to Telegram.
func (f File) Report() bool {
	return f.ReportErrors != nil && *f.ReportErrors
}

// Validate checks required fields.
func (f File) Validate() error {
	switch {
	case f.NativeCopy == "":
		return &Error{Field: "native_copy", Reason: "required"}
	case f.ReportErrors == nil:
		return &Error{Field: "report_errors_to_telegram", Reason: "required"}
	case f.IntervalMS <= 0:
		return &Error{Field: "interval", Reason: "must be positive"}
	case f.Limit < 1 || f.Limit > 100:
		return &Error{Field: "limit", Reason: "must be in 1..100"}
	}
	return nil
}

// Error is a validation error.
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	return "config: " + e.Field + ": " + e.Reason
}

// ParseFile decodes config file data. YAML is used for .yaml and .yml,
// JSON with comments otherwise.
func ParseFile(name string, data []byte) (File, error) {
	var f File
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return File{}, errors.Wrap(err, "decode yaml")
		}
	default:
		if err := json.Unmarshal(jsonc.ToJSON(data), &f); err != nil {
			return File{}, errors.Wrap(err, "decode json")
		}
	}
	if err := f.Validate(); err != nil {
		return File{}, err
	}
	return f, nil
}

// LoadFile reads and parses config file.
func LoadFile(name string) (File, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return File{}, errors.Wrap(err, "read config")
	}
	return ParseFile(name, data)
}

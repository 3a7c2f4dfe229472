// Package config resolves the effective settings of a presentation from an
// optional config file and command-line switches.
//
// Resolution is layered with a private viper instance:
//
//  1. Command-line switches - highest priority, only when present
//  2. Config file values (.cfg/.ini/.conf, .toml, .yaml/.yml)
//  3. Built-in defaults - lowest priority
//
// Sources are the exception: the config file's sources come first and the
// positional arguments are appended after them.
package config

import (
	"fmt"
	"strings"

	slideserrors "github.com/conneroisu/slides/internal/errors"
)

// Linenos selects how code blocks number their lines.
type Linenos string

const (
	LinenosInline Linenos = "inline"
	LinenosNo     Linenos = "no"
	LinenosTable  Linenos = "table"
)

// LinenosValues lists the accepted linenos values in display order.
var LinenosValues = []Linenos{LinenosInline, LinenosNo, LinenosTable}

// ParseLinenos parses a linenos value, rejecting anything outside
// inline, no and table.
func ParseLinenos(s string) (Linenos, error) {
	v := Linenos(strings.ToLower(strings.TrimSpace(s)))
	for _, allowed := range LinenosValues {
		if v == allowed {
			return v, nil
		}
	}

	return "", slideserrors.NewConfigParseError(
		slideserrors.ErrCodeInvalidValue,
		fmt.Sprintf("invalid linenos value %q, must be one of: inline, no, table", s),
	).WithKey(KeyLinenos)
}

// Settings is the resolved configuration of one presentation build. It is
// built once by Resolve and must be treated as read-only afterwards.
type Settings struct {
	Sources          []string `json:"sources" yaml:"sources" validate:"min=1,dive,required"`
	Theme            string   `json:"theme" yaml:"theme" validate:"required"`
	Linenos          Linenos  `json:"linenos" yaml:"linenos" validate:"oneof=inline no table"`
	Destination      string   `json:"destination" yaml:"destination" validate:"required"`
	Encoding         string   `json:"encoding" yaml:"encoding" validate:"required"`
	Extensions       []string `json:"extensions" yaml:"extensions" validate:"dive,required"`
	CSS              []string `json:"css" yaml:"css" validate:"dive,required"`
	JS               []string `json:"js" yaml:"js" validate:"dive,required"`
	CopyTheme        bool     `json:"copy_theme" yaml:"copy_theme"`
	Debug            bool     `json:"debug" yaml:"debug"`
	Embed            bool     `json:"embed" yaml:"embed"`
	DirectOutput     bool     `json:"direct_output" yaml:"direct_output"`
	NoPresenterNotes bool     `json:"no_presenter_notes" yaml:"no_presenter_notes"`
	Quiet            bool     `json:"quiet" yaml:"quiet"`
	Relative         bool     `json:"relative" yaml:"relative"`
	Watch            bool     `json:"watch" yaml:"watch"`
	MathOutput       bool     `json:"math_output" yaml:"math_output"`

	// ConfigFile is the config file the settings were read from, if any.
	ConfigFile string `json:"config_file,omitempty" yaml:"config_file,omitempty"`
}

// Option keys, shared by config files and viper.
const (
	KeySources          = "sources"
	KeyTheme            = "theme"
	KeyLinenos          = "linenos"
	KeyDestination      = "destination"
	KeyEncoding         = "encoding"
	KeyExtensions       = "extensions"
	KeyCSS              = "css"
	KeyJS               = "js"
	KeyCopyTheme        = "copy_theme"
	KeyDebug            = "debug"
	KeyEmbed            = "embed"
	KeyDirectOutput     = "direct_output"
	KeyNoPresenterNotes = "no_presenter_notes"
	KeyQuiet            = "quiet"
	KeyRelative         = "relative"
	KeyWatch            = "watch"
	KeyMathOutput       = "math_output"
)

// ValueType is the shape an option's value is coerced to.
type ValueType int

const (
	TypeString ValueType = iota
	TypeBool
	TypeList
	TypeEnum
)

// Option describes one configurable setting and its command-line switch.
type Option struct {
	Key       string
	Flag      string
	Shorthand string
	Type      ValueType
	Default   interface{}
	Usage     string
}

// Options lists every setting except sources, in help order.
var Options = []Option{
	{Key: KeyTheme, Flag: "theme", Shorthand: "t", Type: TypeString, Default: "default",
		Usage: "Theme name or path to a theme directory"},
	{Key: KeyLinenos, Flag: "linenos", Shorthand: "l", Type: TypeEnum, Default: string(LinenosInline),
		Usage: "Line numbering of code blocks (inline|no|table)"},
	{Key: KeyDestination, Flag: "destination", Shorthand: "d", Type: TypeString, Default: "presentation.html",
		Usage: "Output file"},
	{Key: KeyEncoding, Flag: "encoding", Shorthand: "e", Type: TypeString, Default: "utf8",
		Usage: "Encoding of the source documents"},
	{Key: KeyExtensions, Flag: "extensions", Shorthand: "x", Type: TypeList, Default: []string{},
		Usage: "Comma-separated list of markdown extensions"},
	{Key: KeyCSS, Flag: "css", Type: TypeList, Default: []string{},
		Usage: "Comma-separated list of extra stylesheets"},
	{Key: KeyJS, Flag: "js", Type: TypeList, Default: []string{},
		Usage: "Comma-separated list of extra scripts"},
	{Key: KeyCopyTheme, Flag: "copy-theme", Shorthand: "c", Type: TypeBool, Default: false,
		Usage: "Copy theme assets next to the output file"},
	{Key: KeyDebug, Flag: "debug", Shorthand: "b", Type: TypeBool, Default: false,
		Usage: "Enable debug output"},
	{Key: KeyEmbed, Flag: "embed", Shorthand: "i", Type: TypeBool, Default: false,
		Usage: "Embed stylesheets, scripts and images in the output"},
	{Key: KeyDirectOutput, Flag: "direct-output", Shorthand: "o", Type: TypeBool, Default: false,
		Usage: "Write the presentation to stdout"},
	{Key: KeyNoPresenterNotes, Flag: "no-presenter-notes", Shorthand: "P", Type: TypeBool, Default: false,
		Usage: "Leave presenter notes out of the output"},
	{Key: KeyQuiet, Flag: "quiet", Shorthand: "q", Type: TypeBool, Default: false,
		Usage: "Only report errors"},
	{Key: KeyRelative, Flag: "relative", Shorthand: "r", Type: TypeBool, Default: false,
		Usage: "Keep asset paths relative to the output file"},
	{Key: KeyWatch, Flag: "watch", Shorthand: "w", Type: TypeBool, Default: false,
		Usage: "Rebuild whenever a source or the config file changes"},
	{Key: KeyMathOutput, Flag: "math-output", Shorthand: "m", Type: TypeBool, Default: false,
		Usage: "Enable math output"},
}

// LookupOption returns the option for a canonical key.
func LookupOption(key string) (Option, bool) {
	for _, opt := range Options {
		if opt.Key == key {
			return opt, true
		}
	}

	return Option{}, false
}

// KnownKeys returns every key a config file may use, sources included.
func KnownKeys() []string {
	keys := make([]string, 0, len(Options)+1)
	keys = append(keys, KeySources)
	for _, opt := range Options {
		keys = append(keys, opt.Key)
	}

	return keys
}

// CanonicalKey normalizes a config file key: case-insensitive, '-' and '_'
// interchangeable, and "source" as an alias of "sources".
func CanonicalKey(key string) string {
	k := strings.ToLower(strings.TrimSpace(key))
	k = strings.ReplaceAll(k, "-", "_")
	if k == "source" {
		return KeySources
	}

	return k
}

// Default returns the built-in settings with no sources.
func Default() *Settings {
	return &Settings{
		Sources:     []string{},
		Theme:       "default",
		Linenos:     LinenosInline,
		Destination: "presentation.html",
		Encoding:    "utf8",
		Extensions:  []string{},
		CSS:         []string{},
		JS:          []string{},
	}
}

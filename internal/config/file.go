package config

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	slideserrors "github.com/conneroisu/slides/internal/errors"
)

// Format identifies a config file syntax.
type Format string

const (
	FormatFlat Format = "flat"
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

var configExtensions = map[string]Format{
	".cfg":  FormatFlat,
	".ini":  FormatFlat,
	".conf": FormatFlat,
	".toml": FormatTOML,
	".yaml": FormatYAML,
	".yml":  FormatYAML,
}

// FormatOf returns the config format implied by path's extension.
func FormatOf(path string) (Format, bool) {
	f, ok := configExtensions[strings.ToLower(filepath.Ext(path))]
	return f, ok
}

// IsConfigFile reports whether a positional token names a config file
// rather than a source. Only the extension is inspected, so a missing
// talk.cfg is still treated as a config file and fails to load.
func IsConfigFile(path string) bool {
	_, ok := FormatOf(path)
	return ok
}

// FileConfig is the content of a config file: its sources in file order and
// the remaining values keyed by canonical key, already coerced to string,
// bool or []string.
type FileConfig struct {
	Path    string
	Format  Format
	Sources []string
	Values  map[string]interface{}
}

// LoadFile reads and parses the config file at path.
func LoadFile(path string) (*FileConfig, error) {
	format, ok := FormatOf(path)
	if !ok {
		format = FormatFlat
	}

	data, err := os.ReadFile(path)
	if err != nil {
		code := slideserrors.ErrCodeConfigUnreadable
		if errors.Is(err, fs.ErrNotExist) {
			code = slideserrors.ErrCodeConfigMissing
		}
		return nil, slideserrors.NewConfigReadError(code, path, err)
	}

	var fc *FileConfig
	switch format {
	case FormatTOML:
		fc, err = parseTOML(data)
	case FormatYAML:
		fc, err = parseYAML(data)
	default:
		fc, err = ParseFlat(bytes.NewReader(data))
	}
	if err != nil {
		var e *slideserrors.Error
		if errors.As(err, &e) && e.Path == "" {
			e.Path = path
		}
		return nil, err
	}

	fc.Path = path
	fc.Format = format

	return fc, nil
}

type flatEntry struct {
	key   string
	value string
	line  int
	bare  bool
}

// ParseFlat parses a flat key/value document.
//
//	# comment, ; comment
//	[section]            ignored
//	key = value          or key: value
//	  continued value    indented lines continue the previous key
//	bare.md              a line without separator is a source
func ParseFlat(r io.Reader) (*FileConfig, error) {
	var entries []*flatEntry
	var current *flatEntry

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := strings.TrimRight(scanner.Text(), "\r")
		line := strings.TrimSpace(raw)

		if line == "" {
			current = nil
			continue
		}
		if strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}

		indented := raw[0] == ' ' || raw[0] == '\t'
		if indented && current != nil {
			current.value += "\n" + line
			continue
		}

		if strings.HasPrefix(line, "[") {
			if !strings.HasSuffix(line, "]") {
				return nil, slideserrors.NewConfigParseError(slideserrors.ErrCodeConfigSyntax,
					"unterminated section header").WithLine(lineNo)
			}
			current = nil
			continue
		}

		if key, value, ok := splitKeyValue(line); ok {
			current = &flatEntry{key: key, value: value, line: lineNo}
		} else {
			current = &flatEntry{value: line, line: lineNo, bare: true}
		}
		entries = append(entries, current)
	}
	if err := scanner.Err(); err != nil {
		return nil, slideserrors.Wrap(err, slideserrors.KindConfigRead,
			slideserrors.ErrCodeConfigUnreadable, "cannot read config file")
	}

	fc := &FileConfig{Sources: []string{}, Values: map[string]interface{}{}}
	seen := make(map[string]int)
	for _, entry := range entries {
		if entry.bare {
			fc.Sources = append(fc.Sources, SplitList(entry.value)...)
			continue
		}

		key := CanonicalKey(entry.key)
		if key != KeySources {
			if first, dup := seen[key]; dup {
				return nil, slideserrors.NewConfigParseError(slideserrors.ErrCodeConfigSyntax,
					fmt.Sprintf("duplicate key, first set on line %d", first)).
					WithKey(entry.key).WithLine(entry.line)
			}
			seen[key] = entry.line
		}

		if err := fc.set(key, entry.value); err != nil {
			var e *slideserrors.Error
			if errors.As(err, &e) {
				e.WithLine(entry.line)
			}
			return nil, err
		}
	}

	return fc, nil
}

// splitKeyValue splits "key = value" or "key: value" at the first separator.
// The key must be a single word. A colon glued to the next character only
// separates a known key, so a bare Windows path such as C:\deck stays a
// source.
func splitKeyValue(line string) (string, string, bool) {
	idx := strings.IndexAny(line, "=:")
	if idx <= 0 {
		return "", "", false
	}

	key := strings.TrimSpace(line[:idx])
	if key == "" || strings.ContainsAny(key, " \t") {
		return "", "", false
	}

	rest := line[idx+1:]
	if line[idx] == ':' && rest != "" && rest[0] != ' ' && rest[0] != '\t' && !isKnownKey(key) {
		return "", "", false
	}

	return key, strings.TrimSpace(rest), true
}

func isKnownKey(key string) bool {
	key = CanonicalKey(key)
	if key == KeySources {
		return true
	}
	_, ok := LookupOption(key)
	return ok
}

func parseTOML(data []byte) (*FileConfig, error) {
	raw := map[string]interface{}{}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, tomlError(err)
	}

	return fromMap(raw)
}

func tomlError(err error) error {
	e := slideserrors.Wrap(err, slideserrors.KindConfigParse, slideserrors.ErrCodeConfigSyntax,
		"invalid TOML")

	var decodeErr *toml.DecodeError
	if errors.As(err, &decodeErr) {
		row, _ := decodeErr.Position()
		e.WithLine(row)
	}

	return e
}

func parseYAML(data []byte) (*FileConfig, error) {
	raw := map[string]interface{}{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, slideserrors.Wrap(err, slideserrors.KindConfigParse,
			slideserrors.ErrCodeConfigSyntax, "invalid YAML")
	}

	return fromMap(raw)
}

// fromMap builds a FileConfig from a decoded TOML or YAML document. Keys are
// visited in sorted order so the first reported error is stable.
func fromMap(raw map[string]interface{}) (*FileConfig, error) {
	fc := &FileConfig{Sources: []string{}, Values: map[string]interface{}{}}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	canonical := make(map[string]string, len(keys))
	for _, k := range keys {
		key := CanonicalKey(k)
		if prev, dup := canonical[key]; dup {
			return nil, slideserrors.NewConfigParseError(slideserrors.ErrCodeConfigSyntax,
				fmt.Sprintf("key is also set as %q", prev)).WithKey(k)
		}
		canonical[key] = k

		if _, nested := raw[k].(map[string]interface{}); nested {
			return nil, slideserrors.NewConfigParseError(slideserrors.ErrCodeConfigSyntax,
				"nested tables are not supported").WithKey(k)
		}

		if err := fc.set(key, raw[k]); err != nil {
			return nil, err
		}
	}

	return fc, nil
}

// set stores one coerced value under a canonical key.
func (fc *FileConfig) set(key string, raw interface{}) error {
	if key == KeySources {
		sources, err := toList(raw)
		if err != nil {
			return coerceError(key, err)
		}
		fc.Sources = append(fc.Sources, sources...)
		return nil
	}

	opt, ok := LookupOption(key)
	if !ok {
		e := slideserrors.NewConfigParseError(slideserrors.ErrCodeUnknownKey, "unknown key").WithKey(key)
		for _, s := range slideserrors.SuggestKey(key, KnownKeys()) {
			e.WithHint(fmt.Sprintf("did you mean %q?", s))
		}
		return e
	}

	value, err := coerce(opt, raw)
	if err != nil {
		return coerceError(key, err)
	}
	fc.Values[key] = value

	return nil
}

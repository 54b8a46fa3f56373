// ABOUTME: HOCON configuration store: parse files into trees, read dotted keys,
// ABOUTME: replace top-level sections and render trees back to HOCON text
package hocon

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/gurkankaymak/hocon"
)

var (
	// ErrParse matches every error produced for syntactically invalid input
	ErrParse = errors.New("invalid HOCON")
	// ErrKeyNotFound matches lookups of absent dotted keys
	ErrKeyNotFound = errors.New("key not found")
)

// Tree is a parsed configuration section. Values are Tree, []any, string or Literal.
type Tree map[string]any

// Literal is an unquoted scalar (number, boolean, null, duration) in a
// textual form that parses back to the same value. The source spelling is
// not kept: 0.50 reads back as 0.5 and "yes" as true.
type Literal string

// ParseError reports input that could not be parsed as HOCON
type ParseError struct {
	Source string // file path, or "<string>" for fragments
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s is not valid configuration: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is reports ErrParse so callers can match on the kind without the source
func (e *ParseError) Is(target error) bool { return target == ErrParse }

// KeyNotFoundError reports a dotted key with a missing segment
type KeyNotFoundError struct {
	Key     string
	Segment string
}

func (e *KeyNotFoundError) Error() string {
	if e.Segment != "" && e.Segment != e.Key {
		return fmt.Sprintf("key %q not found (missing %q)", e.Key, e.Segment)
	}
	return fmt.Sprintf("key %q not found", e.Key)
}

func (e *KeyNotFoundError) Is(target error) bool { return target == ErrKeyNotFound }

// Load reads and parses a configuration file
func Load(path string) (Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return parse(path, string(data))
}

// Parse parses an in-memory configuration fragment
func Parse(text string) (Tree, error) {
	return parse("<string>", text)
}

func parse(source, text string) (tree Tree, err error) {
	if strings.TrimSpace(text) == "" {
		return Tree{}, nil
	}

	// The parser panics on some malformed inputs instead of returning an error
	defer func() {
		if r := recover(); r != nil {
			tree = nil
			err = &ParseError{Source: source, Err: fmt.Errorf("%v", r)}
		}
	}()

	conf, err := hocon.ParseString(rewriteDialect(text))
	if err != nil {
		return nil, &ParseError{Source: source, Err: err}
	}

	root, ok := fromValue(conf.GetRoot()).(Tree)
	if !ok {
		return nil, &ParseError{Source: source, Err: errors.New("root is not an object")}
	}
	return root, nil
}

// fromValue converts the parser's value model into Tree values
func fromValue(v hocon.Value) any {
	switch val := v.(type) {
	case nil:
		return Literal("null")
	case hocon.Object:
		t := make(Tree, len(val))
		for k, child := range val {
			t[k] = fromValue(child)
		}
		return t
	case hocon.Array:
		items := make([]any, 0, len(val))
		for _, child := range val {
			items = append(items, fromValue(child))
		}
		return items
	case hocon.String:
		return unescape(string(val))
	case hocon.Float64:
		return Literal(formatFloat(float64(val), 64))
	case hocon.Float32:
		return Literal(formatFloat(float64(val), 32))
	case hocon.Duration:
		return Literal(formatDuration(time.Duration(val)))
	}

	if v.Type() == hocon.ConcatenationType {
		if s, ok := joinConcatenation(v); ok {
			return s
		}
	}
	return Literal(v.String())
}

// unescape decodes the escapes of a quoted string. The parser keeps them
// as written; unquoted strings cannot contain a backslash.
func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	if out, err := strconv.Unquote(`"` + s + `"`); err == nil {
		return out
	}
	return s
}

// joinConcatenation resolves a concatenation of scalars to one string, the
// value HOCON gives it. The parser's concatenation type is unexported, so
// its elements are reached through reflection.
func joinConcatenation(v hocon.Value) (string, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return "", false
	}

	var b strings.Builder
	for i := 0; i < rv.Len(); i++ {
		part, ok := rv.Index(i).Interface().(hocon.Value)
		if !ok {
			return "", false
		}
		switch p := part.(type) {
		case hocon.String:
			b.WriteString(unescape(string(p)))
		case hocon.Int, hocon.Boolean, hocon.Null:
			b.WriteString(p.String())
		case hocon.Float64:
			b.WriteString(strconv.FormatFloat(float64(p), 'f', -1, 64))
		case hocon.Float32:
			b.WriteString(strconv.FormatFloat(float64(p), 'f', -1, 32))
		default:
			return "", false
		}
	}
	return b.String(), true
}

// formatFloat renders f in plain decimal notation, keeping a fraction so it
// reads back as a float
func formatFloat(f float64, bitSize int) string {
	s := strconv.FormatFloat(f, 'f', -1, bitSize)
	if !strings.ContainsAny(s, ".eEIN") {
		s += ".0"
	}
	return s
}

var durationUnits = []struct {
	unit   time.Duration
	suffix string
}{
	{24 * time.Hour, "d"},
	{time.Hour, "h"},
	{time.Minute, "m"},
	{time.Second, "s"},
	{time.Millisecond, "ms"},
	{time.Microsecond, "us"},
}

// formatDuration renders d in the largest unit that divides it exactly
func formatDuration(d time.Duration) string {
	if d == 0 {
		return "0s"
	}
	for _, u := range durationUnits {
		if d%u.unit == 0 {
			return strconv.FormatInt(int64(d/u.unit), 10) + u.suffix
		}
	}
	return strconv.FormatInt(int64(d), 10) + "ns"
}

// Get resolves a dot-separated key through nested sections
func Get(tree Tree, dottedKey string) (any, error) {
	if dottedKey == "" {
		return nil, &KeyNotFoundError{Key: dottedKey}
	}

	var current any = tree
	for _, segment := range strings.Split(dottedKey, ".") {
		section, ok := current.(Tree)
		if !ok {
			return nil, &KeyNotFoundError{Key: dottedKey, Segment: segment}
		}
		next, exists := section[segment]
		if !exists {
			return nil, &KeyNotFoundError{Key: dottedKey, Segment: segment}
		}
		current = next
	}
	return current, nil
}

// ReplaceSection returns a copy of tree with the named top-level section set
// to section. The input tree is left untouched.
func ReplaceSection(tree Tree, name string, section Tree) Tree {
	out := make(Tree, len(tree)+1)
	for k, v := range tree {
		out[k] = v
	}
	out[name] = section.Clone()
	return out
}

// Clone returns a deep copy of the tree
func (t Tree) Clone() Tree {
	if t == nil {
		return nil
	}
	out := make(Tree, len(t))
	for k, v := range t {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case Tree:
		return val.Clone()
	case []any:
		items := make([]any, len(val))
		for i, item := range val {
			items[i] = cloneValue(item)
		}
		return items
	default:
		return val
	}
}

// FromMap builds a Tree from plain Go values (nested maps, slices, strings,
// numbers, booleans)
func FromMap(m map[string]any) Tree {
	t := make(Tree, len(m))
	for k, v := range m {
		t[k] = normalize(v)
	}
	return t
}

func normalize(v any) any {
	switch val := v.(type) {
	case Tree:
		return val.Clone()
	case map[string]any:
		return FromMap(val)
	case []any:
		items := make([]any, len(val))
		for i, item := range val {
			items[i] = normalize(item)
		}
		return items
	case []string:
		items := make([]any, len(val))
		for i, item := range val {
			items[i] = item
		}
		return items
	case string, Literal:
		return val
	case nil:
		return Literal("null")
	default:
		return Literal(fmt.Sprint(val))
	}
}

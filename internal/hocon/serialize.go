// ABOUTME: Renders configuration trees back to HOCON text
// ABOUTME: Output is deterministic (sorted keys) and re-parses to the same tree
package hocon

import (
	"bytes"
	"encoding/json"
	"regexp"
	"sort"
	"strings"
)

const indentUnit = "  "

var bareKey = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Serialize renders a tree as HOCON text
func Serialize(tree Tree) string {
	var b strings.Builder
	writeTree(&b, tree, 0)
	return b.String()
}

// FormatValue renders a looked-up value for display: sections as HOCON
// blocks, strings unquoted, everything else as it would appear in a file
func FormatValue(v any) string {
	switch val := v.(type) {
	case Tree:
		return strings.TrimSuffix(Serialize(val), "\n")
	case string:
		return val
	default:
		return renderValue(val)
	}
}

func writeTree(b *strings.Builder, tree Tree, depth int) {
	indent := strings.Repeat(indentUnit, depth)
	for _, key := range sortedKeys(tree) {
		b.WriteString(indent)
		b.WriteString(renderKey(key))

		if section, ok := tree[key].(Tree); ok {
			b.WriteString(" {\n")
			writeTree(b, section, depth+1)
			b.WriteString(indent)
			b.WriteString("}\n")
			continue
		}

		b.WriteString(": ")
		b.WriteString(renderValue(tree[key]))
		b.WriteString("\n")
	}
}

func renderValue(v any) string {
	switch val := v.(type) {
	case Tree:
		parts := make([]string, 0, len(val))
		for _, key := range sortedKeys(val) {
			parts = append(parts, renderKey(key)+": "+renderValue(val[key]))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			parts = append(parts, renderValue(item))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case string:
		return quote(val)
	case Literal:
		return string(val)
	default:
		return quote("")
	}
}

func renderKey(key string) string {
	if bareKey.MatchString(key) {
		return key
	}
	return quote(key)
}

// quote produces a JSON string literal, which HOCON accepts as a quoted string
func quote(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return strings.TrimSuffix(buf.String(), "\n")
}

func sortedKeys(tree Tree) []string {
	keys := make([]string, 0, len(tree))
	for k := range tree {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

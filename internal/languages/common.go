package languages

import (
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

func text(node *sitter.Node, content []byte) string {
	if node == nil {
		return ""
	}
	return node.Content(content)
}

// span marks a byte range to be replaced when stripping bodies.
type span struct {
	start       uint32
	end         uint32
	replacement string
}

// applySpans splices replacements into content. Spans must not overlap;
// they are applied back to front so earlier offsets stay valid.
func applySpans(content []byte, spans []span) []byte {
	sort.Slice(spans, func(i, j int) bool { return spans[i].start > spans[j].start })
	out := make([]byte, len(content))
	copy(out, content)
	for _, s := range spans {
		var next []byte
		next = append(next, out[:s.start]...)
		next = append(next, s.replacement...)
		next = append(next, out[s.end:]...)
		out = next
	}
	return out
}

// cleanDocstring strips string quotes and prefixes from a raw docstring
// literal and dedents its continuation lines.
func cleanDocstring(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimLeft(s, "rRbBuUfF")
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if strings.HasPrefix(s, q) && strings.HasSuffix(s, q) && len(s) >= 2*len(q) {
			s = s[len(q) : len(s)-len(q)]
			break
		}
	}
	return dedent(s)
}

// dedent removes the common leading whitespace of every line after the
// first, the way docstring continuations are conventionally indented.
func dedent(s string) string {
	lines := strings.Split(s, "\n")
	if len(lines) == 1 {
		return strings.TrimSpace(s)
	}
	margin := -1
	for _, line := range lines[1:] {
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed == "" {
			continue
		}
		indent := len(line) - len(trimmed)
		if margin == -1 || indent < margin {
			margin = indent
		}
	}
	out := make([]string, 0, len(lines))
	out = append(out, strings.TrimSpace(lines[0]))
	for _, line := range lines[1:] {
		if margin > 0 && len(line) >= margin {
			line = line[margin:]
		}
		out = append(out, strings.TrimRight(line, " \t"))
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// commentText strips line-comment markers from a run of comment lines.
func commentText(lines []string, marker string) string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, marker)
		line = strings.TrimPrefix(line, " ")
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

package export

import (
	"regexp"
	"strings"
)

// strippedValue replaces the value of a sensitive header.
const strippedValue = "[value was stripped]"

var sensitiveHeader = regexp.MustCompile(`(?i)^\s*((?:set-)?cookie2?|(?:proxy-)?authorization)\s*:`)

// StripPrivateData returns a copy of a log entry with cookie and
// authorization header values replaced. Entries without headers are
// returned as is; the input is never modified.
func StripPrivateData(entry any) any {
	e, ok := entry.(map[string]any)
	if !ok {
		return entry
	}
	params, ok := e["params"].(map[string]any)
	if !ok {
		return entry
	}

	var headers any
	switch h := params["headers"].(type) {
	case []any:
		headers = stripHeaderLines(h)
	case string:
		headers = stripHeaderBlock(h)
	default:
		return entry
	}

	paramsCopy := make(map[string]any, len(params))
	for k, v := range params {
		paramsCopy[k] = v
	}
	paramsCopy["headers"] = headers

	entryCopy := make(map[string]any, len(e))
	for k, v := range e {
		entryCopy[k] = v
	}
	entryCopy["params"] = paramsCopy
	return entryCopy
}

func stripHeaderLines(lines []any) []any {
	out := make([]any, len(lines))
	for i, line := range lines {
		s, ok := line.(string)
		if !ok {
			out[i] = line
			continue
		}
		out[i] = stripHeader(s)
	}
	return out
}

// stripHeaderBlock handles headers sent as one CRLF separated block.
func stripHeaderBlock(block string) string {
	lines := strings.Split(block, "\r\n")
	for i, line := range lines {
		lines[i] = stripHeader(line)
	}
	return strings.Join(lines, "\r\n")
}

func stripHeader(line string) string {
	m := sensitiveHeader.FindStringSubmatchIndex(line)
	if m == nil {
		return line
	}
	return line[:m[1]] + " " + strippedValue
}

package evaluation

import (
	"encoding/json"
	"regexp"
	"strings"
)

var fencePattern = regexp.MustCompile("(?s)```([A-Za-z0-9_+-]*)[ \\t]*\\r?\\n?(.*?)```")

// extractJSONBlocks finds JSON-looking regions of text: fenced blocks tagged
// json (or untagged fences whose body opens with a brace or bracket), then
// brace-balanced regions in the prose outside fences. An unterminated brace
// region is returned as-is so it fails to parse.
func extractJSONBlocks(text string) []string {
	var blocks []string
	for _, m := range fencePattern.FindAllStringSubmatch(text, -1) {
		lang := strings.ToLower(m[1])
		body := strings.TrimSpace(m[2])
		if body == "" {
			continue
		}
		if lang == "json" || (lang == "" && (body[0] == '{' || body[0] == '[')) {
			blocks = append(blocks, body)
		}
	}
	prose := fencePattern.ReplaceAllString(text, " ")
	return append(blocks, braceRegions(prose)...)
}

func braceRegions(text string) []string {
	var regions []string
	depth, start := 0, -1
	inString, escaped := false, false
	for i := 0; i < len(text); i++ {
		c := text[i]
		if depth > 0 && inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 {
					regions = append(regions, text[start:i+1])
				}
			}
		}
	}
	if depth > 0 {
		regions = append(regions, text[start:])
	}
	return regions
}

// jsonBlocksValid reports whether every JSON-looking block in text parses.
// A response with no blocks is valid.
func jsonBlocksValid(text string) bool {
	for _, b := range extractJSONBlocks(text) {
		if !json.Valid([]byte(b)) {
			return false
		}
	}
	return true
}

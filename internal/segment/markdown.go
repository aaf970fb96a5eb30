package segment

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	frontMatterRe    = regexp.MustCompile(`(?s)\A---\n(.*?)\n---\n`)
	headerRe         = regexp.MustCompile(`(?m)^#+\s*(.+)$`)
	codeBlockRe      = regexp.MustCompile("(?s)```.*?```")
	horizontalRuleRe = regexp.MustCompile(`(?m)^---+$`)
	bulletListRe     = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	numberedListRe   = regexp.MustCompile(`(?m)^\s*\d+\.\s+`)
	linkRe           = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	imageRe          = regexp.MustCompile(`!\[([^\]]*)\]\([^)]+\)`)
	boldRe           = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	italicRe         = regexp.MustCompile(`\*([^*]+)\*`)
	boldUnderscoreRe = regexp.MustCompile(`__([^_]+)__`)
	underscoreRe     = regexp.MustCompile(`_([^_]+)_`)
	inlineCodeRe     = regexp.MustCompile("`([^`]+)`")
	blockquoteRe     = regexp.MustCompile(`(?m)^>\s*`)
)

// segmentMarkdown extracts paragraphs from markdown source. YAML front
// matter becomes document metadata; markdown syntax is stripped so only
// prose content is embedded. Fenced code blocks are removed entirely.
func (s *Segmenter) segmentMarkdown(content string) *Document {
	metadata := map[string]string{}

	if m := frontMatterRe.FindStringSubmatch(content); m != nil {
		metadata = parseFrontMatter(m[1])
		content = content[len(m[0]):]
	}

	return build(s.splitParagraphs(cleanMarkdown(content)), metadata)
}

// cleanMarkdown strips markdown syntax while preserving the readable text.
func cleanMarkdown(text string) string {
	text = codeBlockRe.ReplaceAllString(text, "")
	text = headerRe.ReplaceAllString(text, "$1")
	text = horizontalRuleRe.ReplaceAllString(text, "")
	text = bulletListRe.ReplaceAllString(text, "")
	text = numberedListRe.ReplaceAllString(text, "")
	// Images before links: the image pattern is a superset.
	text = imageRe.ReplaceAllString(text, "$1")
	text = linkRe.ReplaceAllString(text, "$1")
	text = boldRe.ReplaceAllString(text, "$1")
	text = italicRe.ReplaceAllString(text, "$1")
	text = boldUnderscoreRe.ReplaceAllString(text, "$1")
	text = underscoreRe.ReplaceAllString(text, "$1")
	text = inlineCodeRe.ReplaceAllString(text, "$1")
	text = blockquoteRe.ReplaceAllString(text, "")
	return text
}

// parseFrontMatter decodes YAML front matter into a flat string map.
// Nested values are rendered with fmt so metadata stays opaque.
func parseFrontMatter(raw string) map[string]string {
	var parsed map[string]any
	if err := yaml.Unmarshal([]byte(raw), &parsed); err != nil {
		return map[string]string{}
	}

	out := make(map[string]string, len(parsed))
	for k, v := range parsed {
		switch val := v.(type) {
		case string:
			out[k] = val
		case nil:
			out[k] = ""
		default:
			out[k] = strings.TrimSpace(fmt.Sprintf("%v", val))
		}
	}
	return out
}

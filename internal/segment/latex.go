package segment

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	latexCommentRe  = regexp.MustCompile(`(?m)(^|[^\\])%.*$`)
	latexTitleRe    = regexp.MustCompile(`\\title\{([^}]+)\}`)
	latexAuthorRe   = regexp.MustCompile(`\\author\{([^}]+)\}`)
	latexDateRe     = regexp.MustCompile(`\\date\{([^}]+)\}`)
	latexDocClassRe = regexp.MustCompile(`\\documentclass(?:\[[^\]]*\])?\{([^}]+)\}`)
	latexSectionRe  = regexp.MustCompile(`\\section\{[^}]+\}`)

	latexEnvRe     = regexp.MustCompile(`\\begin\{[^}]+\}|\\end\{[^}]+\}`)
	latexMathRe    = regexp.MustCompile(`(?s)\$\$.*?\$\$|\$[^$]*\$`)
	latexCommandRe = regexp.MustCompile(`\\([a-zA-Z]+)\*?(?:\[[^\]]*\])?\{([^{}]*)\}`)
	latexBareCmdRe = regexp.MustCompile(`\\[a-zA-Z]+\*?(?:\[[^\]]*\])?`)
	latexBracesRe  = regexp.MustCompile(`[{}]`)
)

// latexTextCommands keep their argument text when the command is stripped.
var latexTextCommands = map[string]bool{
	"section": true, "subsection": true, "subsubsection": true,
	"paragraph": true, "subparagraph": true, "chapter": true, "part": true,
	"title": true, "author": true, "abstract": true,
	"textbf": true, "textit": true, "emph": true, "text": true,
	"caption": true,
}

// segmentLatex extracts paragraphs from LaTeX source: comments, math, and
// markup commands are removed, keeping the argument text of sectioning and
// emphasis commands. Preamble fields become document metadata.
func (s *Segmenter) segmentLatex(content string) *Document {
	metadata := latexMetadata(content)

	text := latexCommentRe.ReplaceAllString(content, "$1")
	text = latexMathRe.ReplaceAllString(text, " ")
	text = latexEnvRe.ReplaceAllString(text, "\n\n")

	// Commands with a braced argument: keep the argument for text-bearing
	// commands, drop the rest. Applied repeatedly for nested commands.
	for i := 0; i < 4; i++ {
		replaced := latexCommandRe.ReplaceAllStringFunc(text, func(m string) string {
			sub := latexCommandRe.FindStringSubmatch(m)
			if latexTextCommands[sub[1]] {
				return sub[2]
			}
			return " "
		})
		if replaced == text {
			break
		}
		text = replaced
	}

	text = latexBareCmdRe.ReplaceAllString(text, " ")
	text = latexBracesRe.ReplaceAllString(text, "")

	return build(s.splitParagraphs(text), metadata)
}

// latexMetadata pulls preamble fields out of the raw source.
func latexMetadata(content string) map[string]string {
	metadata := map[string]string{"file_type": "latex"}

	if m := latexTitleRe.FindStringSubmatch(content); m != nil {
		metadata["title"] = strings.TrimSpace(m[1])
	}
	if m := latexAuthorRe.FindStringSubmatch(content); m != nil {
		metadata["author"] = strings.TrimSpace(m[1])
	}
	if m := latexDateRe.FindStringSubmatch(content); m != nil {
		metadata["date"] = strings.TrimSpace(m[1])
	}
	if m := latexDocClassRe.FindStringSubmatch(content); m != nil {
		metadata["document_class"] = m[1]
	}
	if sections := latexSectionRe.FindAllString(content, -1); len(sections) > 0 {
		metadata["section_count"] = strconv.Itoa(len(sections))
	}

	return metadata
}

// Package segment converts raw document bytes into paragraph-granularity
// chunks ready for embedding.
//
// Markdown and LaTeX sources are supported. Splitting is length-bounded:
// paragraphs shorter than the configured minimum are dropped, and paragraphs
// longer than the maximum are split at sentence boundaries with a character
// overlap so that no meaning is lost at the cut.
package segment

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Paragraph is one extracted chunk of meaning-bearing text.
type Paragraph struct {
	// Content is the cleaned paragraph text.
	Content string
	// Index is the zero-based position within the document at segmentation.
	Index int
	// WordCount is the number of whitespace-separated words.
	WordCount int
	// CharCount is the length of Content in bytes.
	CharCount int
}

// Document is the result of segmenting one file.
type Document struct {
	// Paragraphs are the extracted chunks in document order.
	Paragraphs []Paragraph
	// Metadata carries document-level metadata (front matter, LaTeX
	// preamble fields) as an opaque string map.
	Metadata map[string]string
}

// Options bounds paragraph lengths.
type Options struct {
	// MinLength is the minimum paragraph length in characters; shorter
	// candidates are excluded entirely.
	MinLength int
	// MaxLength is the maximum paragraph length before splitting.
	MaxLength int
	// Overlap is the character overlap carried into the next split chunk.
	Overlap int
}

// DefaultOptions returns the default segmentation bounds.
func DefaultOptions() Options {
	return Options{
		MinLength: 50,
		MaxLength: 2000,
		Overlap:   100,
	}
}

// Segmenter extracts paragraphs from supported document formats.
type Segmenter struct {
	opts Options
}

// New creates a segmenter with the given options.
func New(opts Options) *Segmenter {
	if opts.MinLength <= 0 {
		opts.MinLength = DefaultOptions().MinLength
	}
	if opts.MaxLength <= opts.MinLength {
		opts.MaxLength = DefaultOptions().MaxLength
	}
	if opts.Overlap < 0 {
		opts.Overlap = 0
	}
	return &Segmenter{opts: opts}
}

// Segment extracts paragraphs from the document bytes. The path is used only
// to select the format by extension; unknown extensions are treated as
// markdown-like plain text.
func (s *Segmenter) Segment(path string, data []byte) (*Document, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tex", ".latex":
		return s.segmentLatex(string(data)), nil
	default:
		return s.segmentMarkdown(string(data)), nil
	}
}

var (
	paragraphSplitRe = regexp.MustCompile(`\n\s*\n`)
	whitespaceRe     = regexp.MustCompile(`\s+`)
	sentenceSplitRe  = regexp.MustCompile(`(?:[.!?])\s+`)
)

// splitParagraphs splits cleaned text on blank lines, normalizes whitespace,
// drops under-length candidates, and splits over-length ones.
func (s *Segmenter) splitParagraphs(text string) []string {
	var out []string
	for _, raw := range paragraphSplitRe.Split(text, -1) {
		p := whitespaceRe.ReplaceAllString(strings.TrimSpace(raw), " ")
		if len(p) < s.opts.MinLength {
			continue
		}
		if len(p) > s.opts.MaxLength {
			// Splitting can leave a short trailing fragment; the
			// minimum applies to every resulting chunk.
			for _, c := range s.splitLong(p) {
				if len(c) >= s.opts.MinLength {
					out = append(out, c)
				}
			}
		} else {
			out = append(out, p)
		}
	}
	return out
}

// splitLong splits an oversize paragraph into chunks at sentence boundaries,
// carrying an overlap into each following chunk.
func (s *Segmenter) splitLong(paragraph string) []string {
	sentences := splitSentences(paragraph)

	var chunks []string
	var current string
	for _, sentence := range sentences {
		if len(current)+len(sentence) > s.opts.MaxLength {
			if current != "" {
				chunks = append(chunks, strings.TrimSpace(current))
				current = s.overlapTail(current) + " " + sentence
			} else {
				// A single sentence exceeding the maximum stands alone.
				chunks = append(chunks, sentence)
			}
		} else if current == "" {
			current = sentence
		} else {
			current += " " + sentence
		}
	}
	if current != "" {
		chunks = append(chunks, strings.TrimSpace(current))
	}
	return chunks
}

// overlapTail returns the trailing overlap of text, preferring to start at a
// sentence boundary inside the overlap window.
func (s *Segmenter) overlapTail(text string) string {
	if len(text) <= s.opts.Overlap {
		return text
	}
	start := len(text) - s.opts.Overlap
	if end := strings.LastIndex(text[start:], "."); end != -1 {
		return strings.TrimSpace(text[start+end+1:])
	}
	return strings.TrimSpace(text[start:])
}

// splitSentences naively splits text at sentence-final punctuation.
func splitSentences(text string) []string {
	parts := sentenceSplitRe.Split(text, -1)
	out := parts[:0]
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// build assembles the Document from cleaned paragraphs and metadata.
func build(paragraphs []string, metadata map[string]string) *Document {
	doc := &Document{
		Paragraphs: make([]Paragraph, 0, len(paragraphs)),
		Metadata:   metadata,
	}
	for i, p := range paragraphs {
		doc.Paragraphs = append(doc.Paragraphs, Paragraph{
			Content:   p,
			Index:     i,
			WordCount: len(strings.Fields(p)),
			CharCount: len(p),
		})
	}
	return doc
}

package segment

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSegmenter() *Segmenter {
	return New(Options{MinLength: 20, MaxLength: 200, Overlap: 40})
}

func TestSegment_MarkdownSplitsOnBlankLines(t *testing.T) {
	// Given: markdown with three paragraphs
	src := []byte(`First paragraph with enough characters to pass the bar.

Second paragraph also long enough to be kept around.

Third paragraph, again comfortably above the minimum.
`)

	// When: it is segmented
	doc, err := testSegmenter().Segment("notes.md", src)
	require.NoError(t, err)

	// Then: three ordered paragraphs come out
	require.Len(t, doc.Paragraphs, 3)
	assert.Equal(t, 0, doc.Paragraphs[0].Index)
	assert.Equal(t, 1, doc.Paragraphs[1].Index)
	assert.Equal(t, 2, doc.Paragraphs[2].Index)
	assert.Contains(t, doc.Paragraphs[0].Content, "First paragraph")
}

func TestSegment_DropsParagraphsBelowMinimumLength(t *testing.T) {
	src := []byte(`tiny

This paragraph is clearly long enough to be included in the output.

ok
`)

	doc, err := testSegmenter().Segment("notes.md", src)
	require.NoError(t, err)

	require.Len(t, doc.Paragraphs, 1)
	assert.Contains(t, doc.Paragraphs[0].Content, "clearly long enough")
}

func TestSegment_NormalizesInternalWhitespace(t *testing.T) {
	src := []byte("A paragraph   with\tmessy\n  internal whitespace that needs cleaning.\n")

	doc, err := testSegmenter().Segment("notes.md", src)
	require.NoError(t, err)

	require.Len(t, doc.Paragraphs, 1)
	assert.Equal(t, "A paragraph with messy internal whitespace that needs cleaning.",
		doc.Paragraphs[0].Content)
}

func TestSegment_SplitsOverlongParagraphsWithOverlap(t *testing.T) {
	// Given: one paragraph well past the 200 character maximum
	sentence := "This sentence pads the paragraph out to a substantial length for splitting."
	src := []byte(strings.Repeat(sentence+" ", 8))

	doc, err := testSegmenter().Segment("notes.md", src)
	require.NoError(t, err)

	// Then: several chunks, each within the maximum plus overlap slack
	require.Greater(t, len(doc.Paragraphs), 1)
	for _, p := range doc.Paragraphs {
		assert.LessOrEqual(t, p.CharCount, 200+80)
	}
}

func TestSegment_SplitFragmentsBelowMinimumAreDropped(t *testing.T) {
	// Given: one overlong paragraph whose final sentence is far below the
	// 20 character minimum
	long := strings.Repeat("wordiness ", 30)
	src := []byte(long + ". The end.\n")

	doc, err := testSegmenter().Segment("notes.md", src)
	require.NoError(t, err)

	// Then: the short trailing fragment never reaches the output
	require.NotEmpty(t, doc.Paragraphs)
	for _, p := range doc.Paragraphs {
		assert.GreaterOrEqual(t, p.CharCount, 20)
		assert.NotEqual(t, "The end.", p.Content)
	}
}

func TestSegment_CountsWordsAndChars(t *testing.T) {
	src := []byte("Five words make this paragraph, plus a few more for length.\n")

	doc, err := testSegmenter().Segment("notes.md", src)
	require.NoError(t, err)

	require.Len(t, doc.Paragraphs, 1)
	p := doc.Paragraphs[0]
	assert.Equal(t, len(strings.Fields(p.Content)), p.WordCount)
	assert.Equal(t, len(p.Content), p.CharCount)
}

func TestSegment_MarkdownFrontMatterBecomesMetadata(t *testing.T) {
	src := []byte(`---
title: My Research Notes
author: A. Writer
year: 2024
---

The body paragraph following the front matter block, long enough to keep.
`)

	doc, err := testSegmenter().Segment("notes.md", src)
	require.NoError(t, err)

	assert.Equal(t, "My Research Notes", doc.Metadata["title"])
	assert.Equal(t, "A. Writer", doc.Metadata["author"])
	assert.Equal(t, "2024", doc.Metadata["year"])

	require.Len(t, doc.Paragraphs, 1)
	assert.NotContains(t, doc.Paragraphs[0].Content, "title:")
}

func TestSegment_MarkdownSyntaxIsStripped(t *testing.T) {
	src := []byte(`## A Section Header Kept As Text

This paragraph has **bold** and *italic* and a [link](https://example.com) plus ` + "`code`" + ` spans.

` + "```" + `
code block removed entirely
` + "```" + `

> A quoted paragraph that should survive without the quote marker.
`)

	doc, err := testSegmenter().Segment("notes.md", src)
	require.NoError(t, err)

	all := make([]string, 0, len(doc.Paragraphs))
	for _, p := range doc.Paragraphs {
		all = append(all, p.Content)
	}
	joined := strings.Join(all, "\n")

	assert.Contains(t, joined, "bold and italic and a link plus code spans")
	assert.Contains(t, joined, "A quoted paragraph that should survive")
	assert.NotContains(t, joined, "code block removed")
	assert.NotContains(t, joined, "**")
	assert.NotContains(t, joined, "](")
	assert.NotContains(t, joined, "> ")
}

func TestSegment_LatexStripsMarkupAndMath(t *testing.T) {
	src := []byte(`\documentclass[12pt]{article}
\title{A Study of Things}
\author{B. Author}
\begin{document}
\maketitle

\section{Introduction}
This introduction paragraph explains the motivation % inline comment
behind the study in plain language.

% a full-line comment
The model obeys $E = mc^2$ in every experiment that we ran carefully.

\end{document}
`)

	doc, err := testSegmenter().Segment("paper.tex", src)
	require.NoError(t, err)

	assert.Equal(t, "latex", doc.Metadata["file_type"])
	assert.Equal(t, "A Study of Things", doc.Metadata["title"])
	assert.Equal(t, "B. Author", doc.Metadata["author"])
	assert.Equal(t, "article", doc.Metadata["document_class"])
	assert.Equal(t, "1", doc.Metadata["section_count"])

	joined := ""
	for _, p := range doc.Paragraphs {
		joined += p.Content + "\n"
	}
	assert.Contains(t, joined, "explains the motivation")
	assert.Contains(t, joined, "in every experiment")
	assert.NotContains(t, joined, "inline comment")
	assert.NotContains(t, joined, "E = mc^2")
	assert.NotContains(t, joined, "\\section")
	assert.NotContains(t, joined, "\\begin")
}

func TestSegment_LatexSectionTitleKeptAsText(t *testing.T) {
	src := []byte(`\section{Experimental Method} The method paragraph with plenty of detail about the setup.`)

	doc, err := testSegmenter().Segment("paper.latex", src)
	require.NoError(t, err)

	require.NotEmpty(t, doc.Paragraphs)
	assert.Contains(t, doc.Paragraphs[0].Content, "Experimental Method")
}

func TestSegment_EmptyDocumentYieldsNoParagraphs(t *testing.T) {
	doc, err := testSegmenter().Segment("empty.md", []byte("\n\n  \n"))
	require.NoError(t, err)
	assert.Empty(t, doc.Paragraphs)
}

func TestSegment_UnknownExtensionTreatedAsMarkdown(t *testing.T) {
	doc, err := testSegmenter().Segment("notes.unknown", []byte("A plain paragraph that is long enough to index.\n"))
	require.NoError(t, err)
	require.Len(t, doc.Paragraphs, 1)
}

package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postpilot/internal/core/domain"
)

func TestParse_TextPost(t *testing.T) {
	text := `---
type: text
topic: Building in public
hashtags: AI, Go
---

## Post Content

Hello world
`
	req, err := Parse(text)
	require.NoError(t, err)
	assert.Equal(t, domain.KindText, req.Kind)
	assert.Equal(t, "Building in public", req.Topic)
	assert.Equal(t, "Hello world", req.Body)
	assert.Equal(t, []string{"AI", "Go"}, req.Tags)
	assert.Empty(t, req.MediaPath)
}

func TestParse_CarouselUsesCaptionHeadingAndPDFPath(t *testing.T) {
	text := `---
type: carousel
topic: Five tools
pdf_path: vault/Pending_Approval/CAROUSEL_tools.pdf
hashtags: #AI, #Productivity
---

## Post Caption

Swipe through for five tools.

## Notes

Internal notes are not part of the caption.
`
	req, err := Parse(text)
	require.NoError(t, err)
	assert.Equal(t, domain.KindCarousel, req.Kind)
	assert.Equal(t, "Swipe through for five tools.", req.Body)
	assert.Equal(t, "vault/Pending_Approval/CAROUSEL_tools.pdf", req.MediaPath)
	assert.Equal(t, []string{"AI", "Productivity"}, req.Tags)
}

func TestParse_ImagePathMapping(t *testing.T) {
	text := `---
type: image
topic: Diagram
image_path: /tmp/diagram.png
---

## Post Content

A picture says it best.
`
	req, err := Parse(text)
	require.NoError(t, err)
	assert.Equal(t, domain.KindImage, req.Kind)
	assert.Equal(t, "/tmp/diagram.png", req.MediaPath)
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{
			name: "no frontmatter",
			text: "## Post Content\n\nHello\n",
		},
		{
			name: "header line without colon",
			text: "---\ntype text\n---\n\n## Post Content\n\nHello\n",
		},
		{
			name: "unknown type",
			text: "---\ntype: video\n---\n\n## Post Content\n\nHello\n",
		},
		{
			name: "missing body section",
			text: "---\ntype: text\n---\n\nNo heading here.\n",
		},
		{
			name: "empty body section",
			text: "---\ntype: text\n---\n\n## Post Content\n\n\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.text)
			require.ErrorIs(t, err, domain.ErrMalformedSubmission)
		})
	}
}

func TestParse_DefaultsAndTagCleanup(t *testing.T) {
	text := `---
topic: Untyped
hashtags: ,  #AI ,, Go ,
---

## Post Content

Body text
`
	req, err := Parse(text)
	require.NoError(t, err)
	assert.Equal(t, domain.KindText, req.Kind, "missing type defaults to text")
	assert.Equal(t, []string{"AI", "Go"}, req.Tags, "tags are trimmed, unmarked, and empties dropped")
}

func TestParse_MissingTopicFallsBack(t *testing.T) {
	text := "---\ntype: text\n---\n\n## Post Content\n\nBody\n"
	req, err := Parse(text)
	require.NoError(t, err)
	assert.Equal(t, "Unknown", req.Topic)
}

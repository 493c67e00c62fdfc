// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package docingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdownPipeline_FrontMatterTitle(t *testing.T) {
	content := []byte("---\ntitle: My Doc\n---\n\n# Heading\n\nBody text.\n")

	doc, err := MarkdownPipeline{}.Parse("docs/readme.md", content)
	require.NoError(t, err)
	assert.Equal(t, "My Doc", doc.Title)
	require.Len(t, doc.Sections, 1)
	assert.Equal(t, "Heading", doc.Sections[0].Title)
	assert.Equal(t, "Body text.", doc.Sections[0].Content)
}

func TestMarkdownPipeline_NestedHeadingsBuildTree(t *testing.T) {
	content := []byte("# Top\n\nintro\n\n## Child\n\nchild body\n\n# Sibling\n\nsibling body\n")

	doc, err := MarkdownPipeline{}.Parse("docs/x.md", content)
	require.NoError(t, err)
	require.Len(t, doc.Sections, 3)

	top, child, sibling := doc.Sections[0], doc.Sections[1], doc.Sections[2]
	assert.Equal(t, "", top.ParentID)
	assert.Equal(t, top.ID, child.ParentID)
	assert.Equal(t, "", sibling.ParentID)
}

func TestMarkdownPipeline_CodeFenceAssociatedWithSection(t *testing.T) {
	content := []byte("# Example\n\n```go\nfunc main() {}\n```\n")

	doc, err := MarkdownPipeline{}.Parse("docs/x.md", content)
	require.NoError(t, err)
	require.Len(t, doc.Sections, 1)
	require.Len(t, doc.Sections[0].CodeBlocks, 1)
	assert.Equal(t, "go", doc.Sections[0].CodeBlocks[0].Language)
}

func TestMarkdownPipeline_LinksClassifiedInternalVsExternal(t *testing.T) {
	content := []byte("# Links\n\nSee [other](other.md) and [site](https://example.com).\n")

	doc, err := MarkdownPipeline{}.Parse("docs/x.md", content)
	require.NoError(t, err)
	require.Len(t, doc.Links, 2)
	assert.True(t, doc.Links[0].Internal)
	assert.False(t, doc.Links[1].Internal)
}

func TestMarkdownPipeline_RequirementsExtractedFromCuratedHeading(t *testing.T) {
	content := []byte("# Requirements\n\n- The system must log every request.\n- The UI should support dark mode.\n")

	doc, err := MarkdownPipeline{}.Parse("docs/x.md", content)
	require.NoError(t, err)
	require.Len(t, doc.Children, 2)
	assert.Equal(t, "requirement", doc.Children[0].Type)
	assert.Equal(t, "must", doc.Children[0].Metadata["priority"])
}

func TestMarkdownPipeline_UserStoryDetectedOutsideRequirementsHeading(t *testing.T) {
	content := []byte("# Notes\n\nAs a user, I want to reset my password, so that I can regain access.\n")

	doc, err := MarkdownPipeline{}.Parse("docs/x.md", content)
	require.NoError(t, err)
	require.Len(t, doc.Children, 1)
	assert.Equal(t, "user-story", doc.Children[0].Metadata["req_type"])
}

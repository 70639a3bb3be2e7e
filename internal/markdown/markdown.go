// Package markdown renders comment messages to sanitized HTML.
package markdown

import (
	"bytes"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	mdParser = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)
	policy = bluemonday.UGCPolicy()
)

func init() {
	policy.AllowImages()
	// Force links to open in new tab
	policy.AddTargetBlankToFullyQualifiedLinks(true)
	policy.RequireNoReferrerOnLinks(true)
}

// Render converts markdown source to HTML safe for embedding in pages.
// The result is cached on the comment row and recomputed on every edit.
func Render(source string) string {
	var buf bytes.Buffer
	if err := mdParser.Convert([]byte(source), &buf); err != nil {
		// Fall back to the sanitized source rather than failing the
		// comment mutation over a rendering problem.
		return policy.Sanitize(source)
	}
	return strings.TrimSpace(string(policy.SanitizeBytes(buf.Bytes())))
}

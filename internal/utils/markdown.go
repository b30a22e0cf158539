package utils

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
	ugcPolicy    = bluemonday.UGCPolicy()
	strictPolicy = bluemonday.StrictPolicy()
)

func init() {
	ugcPolicy.AllowImages()
	// 外链在新窗口打开
	ugcPolicy.AddTargetBlankToFullyQualifiedLinks(true)
	ugcPolicy.RequireNoReferrerOnLinks(true)
}

// RenderMarkdown converts an item description to sanitised HTML.
func RenderMarkdown(source string) string {
	if strings.TrimSpace(source) == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := mdParser.Convert([]byte(source), &buf); err != nil {
		return strictPolicy.Sanitize(source)
	}
	return EnhanceHTMLContent(ugcPolicy.Sanitize(buf.String()))
}

// SanitizeTitle strips all markup from a title.
func SanitizeTitle(s string) string {
	return strings.TrimSpace(strictPolicy.Sanitize(strings.TrimSpace(s)))
}

// SanitizeDescription keeps user-generated markup that is safe to render.
func SanitizeDescription(s string) string {
	return strings.TrimSpace(ugcPolicy.Sanitize(strings.TrimSpace(s)))
}

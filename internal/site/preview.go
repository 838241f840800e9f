package site

import (
	"regexp"
	"strings"

	"sitesmith/internal/models"
)

var (
	// stylesheetLinkRe matches <link> tags whose href points at the
	// artifact's own stylesheet, with or without a ./ prefix.
	stylesheetLinkRe = regexp.MustCompile(`<link\s[^>]*href=["'](?:\./)?style\.css["'][^>]*>`)
	// scriptSrcRe matches <script> tags loading the artifact's own script.
	scriptSrcRe = regexp.MustCompile(`<script\s[^>]*src=["'](?:\./)?script\.js["'][^>]*>\s*</script>`)

	headCloseRe = regexp.MustCompile(`(?i)</head>`)
	bodyCloseRe = regexp.MustCompile(`(?i)</body>`)
)

// Assemble folds the three artifact blobs into one self-contained HTML
// document. References to style.css and script.js in the generated HTML
// are replaced with inline <style> and <script> blocks; when the HTML
// carries no such references, the blocks are injected before </head> and
// </body>. Relative image URLs are left untouched since the preview is
// served from the same base path as the images.
func Assemble(s *models.Site) []byte {
	doc := s.HTML

	styleBlock := ""
	if strings.TrimSpace(s.CSS) != "" {
		styleBlock = "<style>\n" + s.CSS + "\n</style>"
	}
	scriptBlock := ""
	if strings.TrimSpace(s.JS) != "" {
		scriptBlock = "<script>\n" + s.JS + "\n</script>"
	}

	doc, styleInlined := replaceFirstDropRest(doc, stylesheetLinkRe, styleBlock)
	doc, scriptInlined := replaceFirstDropRest(doc, scriptSrcRe, scriptBlock)

	if !styleInlined && styleBlock != "" {
		doc = injectBefore(doc, headCloseRe, styleBlock, false)
	}
	if !scriptInlined && scriptBlock != "" {
		doc = injectBefore(doc, bodyCloseRe, scriptBlock, true)
	}

	return []byte(doc)
}

// replaceFirstDropRest substitutes the first match of re with repl and
// removes any further matches, so the inlined block never appears twice.
// Reports whether at least one match was found.
func replaceFirstDropRest(doc string, re *regexp.Regexp, repl string) (string, bool) {
	found := false
	out := re.ReplaceAllStringFunc(doc, func(string) string {
		if found {
			return ""
		}
		found = true
		return repl
	})
	return out, found
}

// injectBefore inserts block ahead of the first match of re. When the
// document has no matching close tag, the block is appended (or, for
// head-level blocks, prepended).
func injectBefore(doc string, re *regexp.Regexp, block string, appendFallback bool) string {
	loc := re.FindStringIndex(doc)
	if loc == nil {
		if appendFallback {
			return doc + "\n" + block + "\n"
		}
		return block + "\n" + doc
	}
	return doc[:loc[0]] + block + "\n" + doc[loc[0]:]
}

// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

// Placeholder blob contents for a site that has never been generated. They
// are valid documents of their kind, so a preview of an ungenerated site
// still renders, and they are distinguishable from generated-but-empty
// output.
const (
	PlaceholderHTML = "<!-- sitesmith: no site generated yet -->\n"
	PlaceholderCSS  = "/* sitesmith: no styles generated yet */\n"
	PlaceholderJS   = "// sitesmith: no script generated yet\n"
)

// Site is the generated artifact for one user: a single-page document split
// into its three blobs. Regeneration replaces all three wholesale; there are
// no partial-field updates.
type Site struct {
	HTML string `json:"html"`
	CSS  string `json:"css"`
	JS   string `json:"js"`
}

// DefaultSite returns the placeholder artifact for a user whose site has
// never been generated (or was reset).
func DefaultSite() *Site {
	return &Site{
		HTML: PlaceholderHTML,
		CSS:  PlaceholderCSS,
		JS:   PlaceholderJS,
	}
}

// Generated reports whether any blob differs from its placeholder.
func (s *Site) Generated() bool {
	return s.HTML != PlaceholderHTML || s.CSS != PlaceholderCSS || s.JS != PlaceholderJS
}

// Package web provides the embedded demo chat UI. The single-page client
// under static/ talks to the JSON API and shows the generated site in an
// iframe; it is served at / and /static/.
package web

import "embed"

// StaticFS embeds the web/static/ directory tree.
//
//go:embed all:static
var StaticFS embed.FS

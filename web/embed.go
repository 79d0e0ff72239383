// Package web holds the server-rendered pages and their static assets.
package web

import (
	"embed"
	"io/fs"
)

//go:embed templates/**/*.html
var Templates embed.FS

//go:embed static/**/*
var static embed.FS

// TemplatePatterns lists the globs parsed into the view engine. Layouts and
// partials come first so pages can reference them.
var TemplatePatterns = []string{
	"templates/layouts/*.html",
	"templates/partials/*.html",
	"templates/pages/*.html",
}

// Static returns the asset tree rooted at static/, served under /static/.
func Static() (fs.FS, error) {
	return fs.Sub(static, "static")
}

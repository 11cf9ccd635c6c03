// Package web holds the budget UI: page templates and the static
// stylesheet and script served under /static/.
package web

import "embed"

//go:embed templates/*.html
var TemplatesFS embed.FS

//go:embed static/*
var StaticFS embed.FS

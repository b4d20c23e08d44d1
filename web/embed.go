// Package web holds the embedded page templates and static assets.
package web

import "embed"

// TemplatesFS holds the server-rendered pages and htmx partials.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS holds the stylesheet and the small client script.
//
//go:embed static/*
var StaticFS embed.FS

// Package web bundles the dashboard page shells and their assets.
package web

import "embed"

// Templates holds layouts, pages and partials parsed by internal/view.
//
//go:embed templates/**/*.html
var Templates embed.FS

// Static is served under /static/.
//
//go:embed static/**/*
var Static embed.FS

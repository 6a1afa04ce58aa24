package web

import (
	"embed"
)

// staticFiles holds the embedded dashboard.
//
//go:embed static/*
var staticFiles embed.FS

package pubstatic

import "embed"

// EmbeddedAssets contains the default assets shipped with the engine,
// served when the static directory does not provide its own:
// favicon.svg and style.css.
//
//go:embed embedded/*
var EmbeddedAssets embed.FS

// Package web embeds the wizard's single-page UI.
package web

import _ "embed"

//go:embed index.html
var IndexHTML []byte

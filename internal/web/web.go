// Package web holds the embedded single-page UI served at the root path.
package web

import _ "embed"

//go:embed index.html
var IndexHTML []byte

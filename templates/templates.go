// Package templates embeds the HTML email templates so the binary has
// no runtime file dependencies.
package templates

import "embed"

//go:embed emails/*.html
var Emails embed.FS

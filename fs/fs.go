// Package appfs embeds files needed at runtime so the compiled binary stays
// self-contained.
package appfs

import "embed"

//go:embed migrations
var FS embed.FS

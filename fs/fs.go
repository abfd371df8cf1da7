// Package appfs embeds the SQL migrations and static assets into the binaries.
package appfs

import "embed"

//go:embed migrations/*.sql all:assets
var FS embed.FS

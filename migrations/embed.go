// Package migrations embeds the SQL schema applied at boot.
package migrations

import "embed"

// Files holds the ordered *.sql migrations.
//
//go:embed *.sql
var Files embed.FS

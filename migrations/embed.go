// Package migrations embeds the SQL schema migrations into the binary so the
// daemon can migrate its database without the files on disk.
package migrations

import (
	"embed"
	"io/fs"
)

//go:embed *.sql
var files embed.FS

// FS returns the migrations, with files at the root.
func FS() fs.FS {
	return files
}

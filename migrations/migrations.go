// Package migrations embeds the MongoDB command migrations for the toy collection.
// Each file holds a JSON array of database commands as expected by golang-migrate's mongodb driver.
package migrations

import "embed"

//go:embed *.json
var FS embed.FS

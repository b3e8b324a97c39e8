// Package migrations holds the SQL schema migrations applied by
// `user-service migrate up`. Files are named <id>_<description>.sql and run
// in lexical order.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

// Package driver implements a database/sql driver for DBF files.
//
// Every file named in the data source name is streamed chunk by chunk into an
// in-memory SQLite database, one table per file, when a connection is created.
// Compressed inputs (.gz, .bz2, .xz, .zst) and directories are accepted.
//
//	import _ "github.com/nao1215/dbfsql"
//	db, err := sql.Open("dbfsql", "parcels.dbf;owners.dbf.gz?codec=cp1252")
//
// The chunked Loader used by the driver is exported so that DBF files can also be
// loaded into any existing database/sql handle through SQLTarget.
package driver

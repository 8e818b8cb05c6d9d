// Package dbfsql reads xBase DBF (version 5) files as a stream of typed records
// and converts them into CSV, SQL scripts, SQLite tables, Arrow records, Parquet
// files and Excel workbooks.
//
// Records are decoded one at a time, or in chunks of a fixed number of record
// slots, so files larger than memory can be converted with bounded memory use.
// Soft deleted records are skipped. Values that cannot be parsed, and empty
// character fields, become a configurable missing value.
//
// # Features
//
//   - Character, numeric, float, date and logical fields
//   - Text codecs for character fields (utf-8, cp1252, cp437, latin1, ...)
//   - Automatic handling of compressed input (gzip, bzip2, xz, zstandard)
//   - CSV output with optional header, index column and quote escaping
//   - SQL scripts (CREATE TABLE plus bulk load) for SQLite and PostgreSQL
//   - A database/sql driver querying DBF files through in-memory SQLite
//   - Arrow records, Parquet files and XLSX workbooks
//   - Options loaded from YAML, TOML or JSON files and DBFSQL_ environment variables
//
// # Basic Usage
//
// Query DBF files with SQL:
//
//	db, err := dbfsql.Open("parcels.dbf")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	rows, err := db.Query("SELECT owner, area FROM parcels WHERE area > 1000")
//
// Convert a file:
//
//	opts := dbfsql.NewCSVOptions().WithCodec("cp1252").WithChunkSize(10000)
//	res, err := dbfsql.WriteCSV(ctx, "parcels.dbf", "parcels.csv", opts)
//
// Generate a PostgreSQL load script together with its CSV:
//
//	opts := dbfsql.NewSQLScriptOptions().WithDialect("postgres")
//	res, err := dbfsql.WriteSQLScript(ctx, "parcels.dbf", "parcels.sql", "parcels.csv", opts)
//
// Stream records directly:
//
//	r, err := dbfsql.OpenReader("parcels.dbf", dbfsql.NewTableOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
//	for rec, err := range r.Records() {
//	    ...
//	}
//
// # Missing Values
//
// The NA option selects the missing value: "none" stores a null, "nan" or "na"
// stores NaN, and any other string is stored verbatim. CSV output writes null
// as an empty field. Database loads, Arrow and Parquet store both null and NaN
// as NULL.
//
// # Table Names
//
// Table names are derived from file names without extensions:
//   - parcels.dbf becomes "parcels"
//   - owners.dbf.gz becomes "owners"
//
// Options.Table overrides the derived name.
package dbfsql

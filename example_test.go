package dbfsql_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/nao1215/dbfsql"
	"github.com/nao1215/dbfsql/dbf/dbftest"
)

// createTempPeople writes the people sample file into a new temporary directory
func createTempPeople() (string, string) {
	tmpDir, err := os.MkdirTemp("", "dbfsql_example")
	if err != nil {
		log.Fatal(err)
	}
	path := filepath.Join(tmpDir, "people.dbf")
	if err := os.WriteFile(path, dbftest.People(), 0o600); err != nil {
		log.Fatal(err)
	}
	return tmpDir, path
}

// ExampleOpen queries a DBF file with SQL. Missing values are stored as NULL.
func ExampleOpen() {
	tmpDir, path := createTempPeople()
	defer os.RemoveAll(tmpDir)

	db, err := dbfsql.Open(path)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	rows, err := db.Query(`
		SELECT NAME, AGE, ACTIVE
		FROM people
		WHERE NAME IS NOT NULL
		ORDER BY AGE DESC
	`)
	if err != nil {
		log.Fatal(err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var age int
		var active bool
		if err := rows.Scan(&name, &age, &active); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("%s: %d (active: %t)\n", name, age, active)
	}
	if err := rows.Err(); err != nil {
		log.Fatal(err)
	}

	// Output:
	// Bob "B": 41 (active: false)
	// Alice: 30 (active: true)
}

// ExampleWriteCSV converts a DBF file to CSV. Character, date and logical
// values are quoted; unparseable numbers become nan.
func ExampleWriteCSV() {
	tmpDir, path := createTempPeople()
	defer os.RemoveAll(tmpDir)

	dst := filepath.Join(tmpDir, "people.csv")
	res, err := dbfsql.WriteCSV(context.Background(), path, dst, dbfsql.NewCSVOptions())
	if err != nil {
		log.Fatal(err)
	}

	data, err := os.ReadFile(dst) //nolint:gosec // example file
	if err != nil {
		log.Fatal(err)
	}
	fmt.Print(string(data))
	fmt.Printf("%d rows, %d deleted\n", res.Rows, res.Deleted)

	// Output:
	// NAME,AGE,SCORE,RATIO,BORN,ACTIVE
	// "Alice",30,12.5,0.25,"1993-04-01","True"
	// "Bob "B"",41,7.0,1.5,"1982-07-15","False"
	// "",nan,nan,nan,"",""
	// 3 rows, 1 deleted
}

// ExampleWriteSQLScript generates a PostgreSQL script loading the CSV written next to it.
func ExampleWriteSQLScript() {
	tmpDir, path := createTempPeople()
	defer os.RemoveAll(tmpDir)

	sqlPath := filepath.Join(tmpDir, "people.sql")
	csvPath := filepath.Join(tmpDir, "people.csv")
	opts := dbfsql.NewSQLScriptOptions().WithDialect("postgres")
	if _, err := dbfsql.WriteSQLScript(context.Background(), path, sqlPath, csvPath, opts); err != nil {
		log.Fatal(err)
	}

	script, err := os.ReadFile(sqlPath) //nolint:gosec // example file
	if err != nil {
		log.Fatal(err)
	}
	fmt.Print(strings.ReplaceAll(string(script), csvPath, "people.csv"))

	// Output:
	// CREATE TABLE "people" (
	// "index" INTEGER PRIMARY KEY,
	// "NAME" text,
	// "AGE" bigint,
	// "SCORE" double precision,
	// "RATIO" double precision,
	// "BORN" date,
	// "ACTIVE" boolean);
	// \copy "people" from 'people.csv' delimiter ',' csv
}

// ExampleEstimateMemory reports the memory needed to decode a file in chunks.
func ExampleEstimateMemory() {
	tmpDir, path := createTempPeople()
	defer os.RemoveAll(tmpDir)

	r, err := dbfsql.OpenReader(path, dbfsql.NewTableOptions())
	if err != nil {
		log.Fatal(err)
	}
	defer r.Close()

	for _, line := range dbfsql.EstimateMemory(r.Schema(), 100).Lines() {
		fmt.Println(line)
	}

	// Output:
	// Chunk size larger than number of records.
	// Chunk size set to 4.
	// This total process would require more than 0.0002823 MB of RAM.
}

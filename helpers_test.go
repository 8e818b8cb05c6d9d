package dbfsql

import (
	"strconv"
	"testing"

	"github.com/nao1215/dbfsql/dbf/dbftest"
)

// peopleCSV is the CSV of dbftest.People with NewCSVOptions
const peopleCSV = `NAME,AGE,SCORE,RATIO,BORN,ACTIVE
"Alice",30,12.5,0.25,"1993-04-01","True"
"Bob "B"",41,7.0,1.5,"1982-07-15","False"
"",nan,nan,nan,"",""
`

func writePeople(t *testing.T) string {
	t.Helper()
	return dbftest.WriteFile(t, t.TempDir(), "people.dbf", dbftest.People())
}

// writeNumbers writes a file of n live records with one numeric field holding 0..n-1
func writeNumbers(t *testing.T, dir string, n int) string {
	t.Helper()
	fields := []dbftest.Field{{Name: "N", Type: 'N', Width: 6}}
	rows := make([]dbftest.Row, n)
	for i := range rows {
		rows[i] = dbftest.Live(strconv.Itoa(i))
	}
	return dbftest.WriteFile(t, dir, "numbers.dbf", dbftest.Build(fields, rows))
}


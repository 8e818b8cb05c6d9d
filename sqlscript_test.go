package dbfsql

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/nao1215/dbfsql/dbf"
	"github.com/nao1215/dbfsql/dbf/dbftest"
	"github.com/nao1215/dbfsql/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const peopleScriptCSV = `0,"Alice",30,12.5,0.25,"1993-04-01","True"
1,"Bob ""B""",41,7.0,1.5,"1982-07-15","False"
2,"",nan,nan,nan,"",""
`

func TestWriteSQLScript(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		dialect string
		want    func(csvPath string) string
	}{
		{
			name:    "sqlite",
			dialect: "sqlite",
			want: func(csvPath string) string {
				return "CREATE TABLE people (\n" +
					"\"index\" INTEGER PRIMARY KEY ASC,\n" +
					"\"NAME\" TEXT,\n" +
					"\"AGE\" INTEGER,\n" +
					"\"SCORE\" REAL,\n" +
					"\"RATIO\" REAL,\n" +
					"\"BORN\" TEXT,\n" +
					"\"ACTIVE\" INTEGER);\n" +
					".mode csv people\n" +
					".import " + csvPath + " people\n"
			},
		},
		{
			name:    "postgres",
			dialect: "postgres",
			want: func(csvPath string) string {
				return "CREATE TABLE \"people\" (\n" +
					"\"index\" INTEGER PRIMARY KEY,\n" +
					"\"NAME\" text,\n" +
					"\"AGE\" bigint,\n" +
					"\"SCORE\" double precision,\n" +
					"\"RATIO\" double precision,\n" +
					"\"BORN\" date,\n" +
					"\"ACTIVE\" boolean);\n" +
					"\\copy \"people\" from '" + csvPath + "' delimiter ',' csv\n"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			src := writePeople(t)
			dir := t.TempDir()
			sqlPath := filepath.Join(dir, "people.sql")
			csvPath := filepath.Join(dir, "people.csv")

			res, err := WriteSQLScript(context.Background(), src, sqlPath, csvPath, NewSQLScriptOptions().WithDialect(tt.dialect))
			require.NoError(t, err)
			assert.Equal(t, 3, res.Rows)

			script, err := os.ReadFile(sqlPath)
			require.NoError(t, err)
			assert.Equal(t, tt.want(csvPath), string(script))

			csv, err := os.ReadFile(csvPath)
			require.NoError(t, err)
			assert.Equal(t, peopleScriptCSV, string(csv))
		})
	}
}

func TestWriteSQLScript_Errors(t *testing.T) {
	t.Parallel()

	t.Run("unknown dialect writes nothing", func(t *testing.T) {
		t.Parallel()

		src := writePeople(t)
		dir := t.TempDir()
		sqlPath := filepath.Join(dir, "people.sql")
		csvPath := filepath.Join(dir, "people.csv")

		_, err := WriteSQLScript(context.Background(), src, sqlPath, csvPath, NewSQLScriptOptions().WithDialect("oracle"))
		require.ErrorIs(t, err, ErrUnsupportedDialect)
		assert.NoFileExists(t, sqlPath)
		assert.NoFileExists(t, csvPath)
	})

	t.Run("unwritable script", func(t *testing.T) {
		t.Parallel()

		src := writePeople(t)
		dir := t.TempDir()
		blocker := filepath.Join(dir, "blocker")
		require.NoError(t, os.WriteFile(blocker, nil, 0o600))

		_, err := WriteSQLScript(context.Background(), src, filepath.Join(blocker, "people.sql"), filepath.Join(dir, "people.csv"), NewSQLScriptOptions())
		require.ErrorIs(t, err, ErrSinkWrite)
	})
}

func TestWriteSQLSchema(t *testing.T) {
	t.Parallel()

	t.Run("fallback types for columns without values", func(t *testing.T) {
		t.Parallel()

		fields := []dbftest.Field{
			{Name: "NAME", Type: 'C', Width: 4},
			{Name: "QTY", Type: 'N', Width: 4},
			{Name: "RATE", Type: 'F', Width: 4},
			{Name: "OK", Type: 'L', Width: 1},
			{Name: "DAY", Type: 'D', Width: 8},
		}
		data := dbftest.Build(fields, []dbftest.Row{dbftest.Live("", "", "x", "?", "")})
		r, err := dbf.NewReader(bytes.NewReader(data), dbf.DefaultConfig())
		require.NoError(t, err)
		_, err = r.ReadAll()
		require.NoError(t, err)
		assert.Equal(t, 0, r.Witness().Len())

		dialect, err := model.LookupDialect("sqlite")
		require.NoError(t, err)

		var buf bytes.Buffer
		require.NoError(t, WriteSQLSchema(&buf, r.Schema(), r.Witness(), dialect, "empty", "empty.csv", false))
		assert.Equal(t, "CREATE TABLE empty (\n"+
			"\"NAME\" TEXT,\n"+
			"\"QTY\" REAL,\n"+
			"\"RATE\" REAL,\n"+
			"\"OK\" INTEGER,\n"+
			"\"DAY\" TEXT);\n"+
			".mode csv empty\n"+
			".import empty.csv empty\n", buf.String())
	})

	t.Run("nil witness", func(t *testing.T) {
		t.Parallel()

		r, err := dbf.NewReader(bytes.NewReader(dbftest.People()), dbf.DefaultConfig())
		require.NoError(t, err)
		dialect, err := model.LookupDialect("postgres")
		require.NoError(t, err)

		var buf bytes.Buffer
		require.NoError(t, WriteSQLSchema(&buf, r.Schema(), nil, dialect, "people", "people.csv", false))
		assert.Contains(t, buf.String(), "\"AGE\" double precision,\n")
		assert.Contains(t, buf.String(), "\"BORN\" date,\n")
	})
}

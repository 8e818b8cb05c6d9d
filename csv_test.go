package dbfsql

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/nao1215/dbfsql/dbf"
	"github.com/nao1215/dbfsql/dbf/dbftest"
	"github.com/nao1215/dbfsql/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
)

func TestWriteCSV(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts Options
		want string
	}{
		{
			name: "defaults",
			opts: NewCSVOptions(),
			want: peopleCSV,
		},
		{
			name: "chunked output is identical",
			opts: NewCSVOptions().WithChunkSize(1),
			want: peopleCSV,
		},
		{
			name: "index without header",
			opts: NewCSVOptions().WithHeader(false).WithIndex(true),
			want: `0,"Alice",30,12.5,0.25,"1993-04-01","True"
1,"Bob "B"",41,7.0,1.5,"1982-07-15","False"
2,"",nan,nan,nan,"",""
`,
		},
		{
			name: "index in header",
			opts: NewCSVOptions().WithIndex(true).WithChunkSize(2),
			want: `index,NAME,AGE,SCORE,RATIO,BORN,ACTIVE
0,"Alice",30,12.5,0.25,"1993-04-01","True"
1,"Bob "B"",41,7.0,1.5,"1982-07-15","False"
2,"",nan,nan,nan,"",""
`,
		},
		{
			name: "verbatim missing literal",
			opts: NewCSVOptions().WithHeader(false).WithNA("N/A"),
			want: `"Alice",30,12.5,0.25,"1993-04-01","True"
"Bob "B"",41,7.0,1.5,"1982-07-15","False"
"N/A",nan,nan,nan,"N/A","N/A"
`,
		},
		{
			name: "null missing value renders empty",
			opts: NewCSVOptions().WithHeader(false).WithNA("none"),
			want: `"Alice",30,12.5,0.25,"1993-04-01","True"
"Bob "B"",41,7.0,1.5,"1982-07-15","False"
"",nan,nan,nan,"",""
`,
		},
		{
			name: "escaped quotes",
			opts: NewCSVOptions().WithHeader(false).WithEscapeQuote(`"`),
			want: `"Alice",30,12.5,0.25,"1993-04-01","True"
"Bob ""B""",41,7.0,1.5,"1982-07-15","False"
"",nan,nan,nan,"",""
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			src := writePeople(t)
			dst := filepath.Join(t.TempDir(), "people.csv")

			res, err := WriteCSV(context.Background(), src, dst, tt.opts)
			require.NoError(t, err)

			got, err := os.ReadFile(dst)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
			assert.Equal(t, 3, res.Rows)
			assert.Equal(t, 1, res.Deleted)
			assert.Equal(t, "people", res.Table)
		})
	}
}

func TestWriteCSV_Modes(t *testing.T) {
	t.Parallel()

	t.Run("truncates by default", func(t *testing.T) {
		t.Parallel()

		src := writePeople(t)
		dst := filepath.Join(t.TempDir(), "people.csv")
		require.NoError(t, os.WriteFile(dst, []byte("stale content\n"), 0o600))

		for range 2 {
			_, err := WriteCSV(context.Background(), src, dst, NewCSVOptions())
			require.NoError(t, err)
		}

		got, err := os.ReadFile(dst)
		require.NoError(t, err)
		assert.Equal(t, peopleCSV, string(got))
	})

	t.Run("append", func(t *testing.T) {
		t.Parallel()

		src := writePeople(t)
		dst := filepath.Join(t.TempDir(), "people.csv")
		opts := NewCSVOptions().WithHeader(false).WithAppend(true)

		for range 2 {
			_, err := WriteCSV(context.Background(), src, dst, opts)
			require.NoError(t, err)
		}

		got, err := os.ReadFile(dst)
		require.NoError(t, err)
		assert.Equal(t, 6, strings.Count(string(got), "\n"))
	})

	t.Run("creates missing directories", func(t *testing.T) {
		t.Parallel()

		src := writePeople(t)
		dst := filepath.Join(t.TempDir(), "a", "b", "people.csv")
		_, err := WriteCSV(context.Background(), src, dst, NewCSVOptions())
		require.NoError(t, err)
		assert.FileExists(t, dst)
	})

	t.Run("table override", func(t *testing.T) {
		t.Parallel()

		src := writePeople(t)
		res, err := WriteCSV(context.Background(), src, filepath.Join(t.TempDir(), "x.csv"), NewCSVOptions().WithTable("persons"))
		require.NoError(t, err)
		assert.Equal(t, "persons", res.Table)
	})
}

func TestWriteCSV_Compression(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		file   string
		opts   Options
		reader func(io.Reader) (io.Reader, error)
	}{
		{
			name: "gzip from extension",
			file: "people.csv.gz",
			opts: NewCSVOptions(),
			reader: func(r io.Reader) (io.Reader, error) {
				return gzip.NewReader(r)
			},
		},
		{
			name: "xz from extension",
			file: "people.csv.xz",
			opts: NewCSVOptions(),
			reader: func(r io.Reader) (io.Reader, error) {
				return xz.NewReader(r)
			},
		},
		{
			name: "explicit zstd",
			file: "people.out",
			opts: NewCSVOptions().WithCompression(CompressionZSTD),
			reader: func(r io.Reader) (io.Reader, error) {
				return zstd.NewReader(r)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			src := writePeople(t)
			dst := filepath.Join(t.TempDir(), tt.file)
			_, err := WriteCSV(context.Background(), src, dst, tt.opts)
			require.NoError(t, err)

			f, err := os.Open(dst) //nolint:gosec // test file
			require.NoError(t, err)
			defer f.Close()

			r, err := tt.reader(f)
			require.NoError(t, err)
			got, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, peopleCSV, string(got))
		})
	}

	t.Run("compressed input", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		_, err := zw.Write(dbftest.People())
		require.NoError(t, err)
		require.NoError(t, zw.Close())

		dir := t.TempDir()
		src := dbftest.WriteFile(t, dir, "people.dbf.gz", buf.Bytes())
		dst := filepath.Join(dir, "people.csv")

		res, err := WriteCSV(context.Background(), src, dst, NewCSVOptions())
		require.NoError(t, err)
		assert.Equal(t, "people", res.Table)

		got, err := os.ReadFile(dst)
		require.NoError(t, err)
		assert.Equal(t, peopleCSV, string(got))
	})

	t.Run("bzip2 output is rejected", func(t *testing.T) {
		t.Parallel()

		src := writePeople(t)
		dst := filepath.Join(t.TempDir(), "people.csv")
		_, err := WriteCSV(context.Background(), src, dst, NewCSVOptions().WithCompression(CompressionBZ2))
		require.ErrorIs(t, err, ErrInvalidOptions)
		assert.NoFileExists(t, dst)
	})
}

func TestWriteCSV_Errors(t *testing.T) {
	t.Parallel()

	t.Run("unwritable destination", func(t *testing.T) {
		t.Parallel()

		src := writePeople(t)
		blocker := filepath.Join(t.TempDir(), "blocker")
		require.NoError(t, os.WriteFile(blocker, nil, 0o600))

		_, err := WriteCSV(context.Background(), src, filepath.Join(blocker, "out.csv"), NewCSVOptions())
		require.ErrorIs(t, err, ErrSinkWrite)
	})

	t.Run("missing source", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		dst := filepath.Join(dir, "out.csv")
		_, err := WriteCSV(context.Background(), filepath.Join(dir, "absent.dbf"), dst, NewCSVOptions())
		require.ErrorIs(t, err, os.ErrNotExist)
		assert.NoFileExists(t, dst)
	})

	t.Run("malformed header", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		src := dbftest.WriteFile(t, dir, "bad.dbf", dbftest.People()[:20])
		_, err := WriteCSV(context.Background(), src, filepath.Join(dir, "out.csv"), NewCSVOptions())
		require.ErrorIs(t, err, ErrMalformedHeader)
	})

	t.Run("truncated body keeps decoded lines", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		data := dbftest.BuildWithCount(dbftest.PeopleFields(), dbftest.PeopleRows(), 5)
		src := dbftest.WriteFile(t, dir, "short.dbf", data)
		dst := filepath.Join(dir, "short.csv")

		res, err := WriteCSV(context.Background(), src, dst, NewCSVOptions())
		require.ErrorIs(t, err, ErrTruncatedRecord)
		assert.Equal(t, 3, res.Rows)

		got, rerr := os.ReadFile(dst)
		require.NoError(t, rerr)
		assert.Equal(t, peopleCSV, string(got))
	})

	t.Run("unknown codec", func(t *testing.T) {
		t.Parallel()

		src := writePeople(t)
		_, err := WriteCSV(context.Background(), src, filepath.Join(t.TempDir(), "out.csv"), NewCSVOptions().WithCodec("klingon"))
		require.ErrorIs(t, err, ErrUnsupportedCodec)
	})

	t.Run("canceled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		src := writePeople(t)
		_, err := WriteCSV(ctx, src, filepath.Join(t.TempDir(), "out.csv"), NewCSVOptions())
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestExportCSV(t *testing.T) {
	t.Parallel()

	r, err := dbf.NewReader(bytes.NewReader(dbftest.People()), NewCSVOptions().DecodeConfig())
	require.NoError(t, err)

	var buf bytes.Buffer
	res, err := ExportCSV(context.Background(), r, &buf, NewCSVOptions().WithChunkSize(2))
	require.NoError(t, err)

	assert.Equal(t, peopleCSV, buf.String())
	assert.Equal(t, 3, res.Rows)
	assert.Equal(t, 1, res.Deleted)
	kind, ok := res.Witness.Kind("AGE")
	assert.True(t, ok)
	assert.Equal(t, model.KindInt, kind)
}

func TestCSVWriter(t *testing.T) {
	t.Parallel()

	columns := []model.FieldDescriptor{
		{Name: "ID", Type: model.FieldTypeNumeric, Width: 4},
		{Name: "LABEL", Type: model.FieldTypeCharacter, Width: 8},
	}

	var buf bytes.Buffer
	cw := NewCSVWriter(&buf, columns, NewCSVOptions().WithIndex(true))
	require.NoError(t, cw.WriteHeader())
	require.NoError(t, cw.WriteRecord(model.Record{model.IntValue(7), model.StringValue("a,b")}))
	require.NoError(t, cw.WriteRecord(model.Record{model.FloatValue(2), model.NullValue()}))
	assert.Empty(t, buf.String(), "output is buffered until Flush")

	require.NoError(t, cw.Flush())
	assert.Equal(t, "index,ID,LABEL\n0,7,\"a,b\"\n1,2.0,\"\"\n", buf.String())
}

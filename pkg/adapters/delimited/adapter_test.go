package delimited

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leapstack-labs/storagy/internal/testutil"
	"github.com/leapstack-labs/storagy/pkg/adapter"
	"github.com/leapstack-labs/storagy/pkg/adapters/flatfile"
	"github.com/leapstack-labs/storagy/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAdapter(t *testing.T, dir, name, content string, modify func(*Options)) *Adapter {
	t.Helper()
	if content != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}
	opts := DefaultOptions()
	opts.Path = dir
	opts.Filename = name
	opts.Mode = "a+"
	if modify != nil {
		modify(&opts)
	}
	a, err := New(context.Background(), opts, testutil.NewTestLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Disconnect() })
	return a
}

func readFile(t *testing.T, a *Adapter) string {
	t.Helper()
	data, err := os.ReadFile(a.Filepath().String())
	require.NoError(t, err)
	return string(data)
}

func TestNew_InvalidDialect(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Options)
	}{
		{"empty delimiter", func(o *Options) { o.Delimiter = "" }},
		{"long quote", func(o *Options) { o.Quote = "''" }},
		{"same chars", func(o *Options) { o.Quote = "," }},
		{"newline delimiter", func(o *Options) { o.Delimiter = "\n" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.Filename = "x.csv"
			tt.modify(&opts)
			_, err := New(context.Background(), opts, nil)
			assert.Error(t, err)
		})
	}
}

func TestNew_MissingFile(t *testing.T) {
	opts := DefaultOptions()
	opts.Path = t.TempDir()
	opts.Filename = "missing.csv"
	_, err := New(context.Background(), opts, nil)
	assert.ErrorIs(t, err, core.ErrSourceUnavailable)
}

func TestFieldList(t *testing.T) {
	tests := []struct {
		name    string
		content string
		modify  func(*Options)
		want    []string
		wantErr error
	}{
		{
			name:    "header",
			content: "id,name\n1,ana\n",
			want:    []string{"id", "name"},
		},
		{
			name:    "headerless uses default names",
			content: "1,ana,x\n",
			modify:  func(o *Options) { o.HasHeader = false },
			want:    []string{"col1", "col2", "col3"},
		},
		{
			name:    "brace placeholder",
			content: "1,ana\n",
			modify: func(o *Options) {
				o.HasHeader = false
				o.DefaultColName = "field_{}"
			},
			want: []string{"field_1", "field_2"},
		},
		{
			name:    "semicolon delimiter",
			content: "a;b\n",
			modify:  func(o *Options) { o.Delimiter = ";" },
			want:    []string{"a", "b"},
		},
		{
			name:    "empty file with fields",
			content: "",
			modify:  func(o *Options) { o.Fields = []string{"x", "y"} },
			want:    []string{"x", "y"},
		},
		{
			name:    "empty file",
			content: "",
			wantErr: core.ErrEmptySource,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			a := newAdapter(t, dir, "f.csv", tt.content, tt.modify)

			got, err := a.FieldList(context.Background())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInsertList_FirstRowBecomesHeader(t *testing.T) {
	a := newAdapter(t, t.TempDir(), "f.csv", "", nil)

	require.NoError(t, a.InsertList(context.Background(), []string{"a", "b"}))

	fields, err := a.FieldList(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, fields)

	rows, err := a.All(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestInsertList_ConfiguredHeader(t *testing.T) {
	a := newAdapter(t, t.TempDir(), "f.csv", "", func(o *Options) {
		o.Fields = []string{"id", "name"}
	})

	require.NoError(t, a.InsertList(context.Background(), []string{"1", "ana"}))
	require.NoError(t, a.InsertList(context.Background(), []string{"2", "bia"}))

	assert.Equal(t, "id,name\n1,ana\n2,bia\n", readFile(t, a))
}

func TestInsertDict(t *testing.T) {
	a := newAdapter(t, t.TempDir(), "f.csv", "x,y\n", nil)

	require.NoError(t, a.InsertDict(context.Background(), map[string]any{"y": 2, "x": 1}))
	require.NoError(t, a.InsertDict(context.Background(), map[string]any{"y": "only y"}))

	assert.Equal(t, "x,y\n1,2\n,only y\n", readFile(t, a))
}

func TestInsertDict_UnknownField(t *testing.T) {
	a := newAdapter(t, t.TempDir(), "f.csv", "x,y\n", nil)

	err := a.InsertDict(context.Background(), map[string]any{"x": 1, "unknownfield": 2})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrUnknownField)

	var fieldErr *core.UnknownFieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "unknownfield", fieldErr.Field)
	assert.Contains(t, err.Error(), "unknownfield")

	assert.Equal(t, "x,y\n", readFile(t, a), "nothing written on failure")
}

func TestInsert_Dispatch(t *testing.T) {
	tests := []struct {
		name   string
		header bool
		row    any
		want   string
	}{
		{"strings", true, []string{"1", "2"}, "x,y\n1,2\n"},
		{"any values", true, []any{1, nil}, "x,y\n1,\n"},
		{"map in header mode", true, map[string]any{"y": "b", "x": "a"}, "x,y\na,b\n"},
		{"string map", true, map[string]string{"x": "a"}, "x,y\na,\n"},
		{"record", true, core.Record{Names: []string{"y"}, Values: []any{true}}, "x,y\n,true\n"},
		{"map headerless uses key order", false, map[string]any{"b": 2, "a": 1}, "x,y\n1,2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newAdapter(t, t.TempDir(), "f.csv", "x,y\n", func(o *Options) { o.HasHeader = tt.header })
			require.NoError(t, a.Insert(context.Background(), tt.row))
			assert.Equal(t, tt.want, readFile(t, a))
		})
	}
}

func TestInsert_InvalidShape(t *testing.T) {
	a := newAdapter(t, t.TempDir(), "f.csv", "x,y\n", nil)

	err := a.Insert(context.Background(), 42)
	assert.ErrorIs(t, err, core.ErrInvalidDataShape)
}

func TestBulkInsert_RoundTrip(t *testing.T) {
	a := newAdapter(t, t.TempDir(), "f.csv", "", func(o *Options) { o.HasHeader = false })

	const n = 50
	rows := make([][]string, n)
	want := make([]core.Row, n)
	for i := range rows {
		rows[i] = []string{fmt.Sprint(i), fmt.Sprintf("name %d", i), "with, comma", `with "quote"`}
		want[i] = core.Row{rows[i][0], rows[i][1], rows[i][2], rows[i][3]}
	}

	require.NoError(t, a.BulkInsert(context.Background(), rows))

	got, err := a.All(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestBulkInsert_Latin1PastBufferSize(t *testing.T) {
	a := newAdapter(t, t.TempDir(), "f.csv", "", func(o *Options) {
		o.HasHeader = false
		o.Encoding = "ISO-8859-1"
	})

	// 600 rows of two-byte runes span several bufio flushes
	rows := make([][]string, 600)
	want := make([]core.Row, len(rows))
	for i := range rows {
		rows[i] = []string{"ção", "ééé"}
		want[i] = core.Row{"ção", "ééé"}
	}
	require.NoError(t, a.BulkInsert(context.Background(), rows))

	const line = "\xe7\xe3o,\xe9\xe9\xe9\n"
	assert.Equal(t, strings.Repeat(line, len(rows)), readFile(t, a))

	got, err := a.All(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestBulkInsert_UnencodableWritesNothing(t *testing.T) {
	a := newAdapter(t, t.TempDir(), "f.csv", "x,y\n", func(o *Options) { o.Encoding = "ISO-8859-1" })

	err := a.BulkInsert(context.Background(), [][]string{{"1", "2"}, {"3", "€"}})
	require.Error(t, err)
	assert.Equal(t, "x,y\n", readFile(t, a))
}

func TestBulkInsert_Shapes(t *testing.T) {
	tests := []struct {
		name string
		rows any
		want string
	}{
		{"any rows", [][]any{{1, 2.5}, {"a", nil}}, "x,y\n1,2.5\na,\n"},
		{"core rows", []core.Row{{"r", 1}}, "x,y\nr,1\n"},
		{"maps", []map[string]any{{"x": 1}, {"y": 2}}, "x,y\n1,\n,2\n"},
		{"string maps", []map[string]string{{"x": "a", "y": "b"}}, "x,y\na,b\n"},
		{"empty", [][]string{}, "x,y\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newAdapter(t, t.TempDir(), "f.csv", "x,y\n", nil)
			require.NoError(t, a.BulkInsert(context.Background(), tt.rows))
			assert.Equal(t, tt.want, readFile(t, a))
		})
	}
}

func TestBulkInsert_Errors(t *testing.T) {
	a := newAdapter(t, t.TempDir(), "f.csv", "x,y\n", nil)

	err := a.BulkInsert(context.Background(), []int{1, 2})
	assert.ErrorIs(t, err, core.ErrInvalidDataShape)

	err = a.BulkInsert(context.Background(), []map[string]any{{"x": 1}, {"z": 2}})
	assert.ErrorIs(t, err, core.ErrUnknownField)
	assert.Equal(t, "x,y\n", readFile(t, a), "mapping rows are validated before writing")
}

func TestBulkInsert_ReadOnly(t *testing.T) {
	a := newAdapter(t, t.TempDir(), "f.csv", "x,y\n", func(o *Options) { o.Mode = "r" })

	err := a.BulkInsert(context.Background(), [][]string{{"1", "2"}})
	assert.ErrorIs(t, err, core.ErrReadOnly)
}

func TestAll_CustomQuote(t *testing.T) {
	content := "id|note\n1|'a|b'\n2|'it''s'\n\n3|plain\n"
	a := newAdapter(t, t.TempDir(), "f.csv", content, func(o *Options) {
		o.Delimiter = "|"
		o.Quote = "'"
	})

	rows, err := a.All(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []core.Row{
		{"1", "a|b"},
		{"2", "it's"},
		{"3", "plain"},
	}, rows)

	require.NoError(t, a.InsertList(context.Background(), []string{"4", "x|y", "o'k"}))
	assert.Equal(t, content+"4|'x|y'|'o''k'\n", readFile(t, a))
}

func TestAll_BareQuoteInField(t *testing.T) {
	a := newAdapter(t, t.TempDir(), "f.csv", "name,note\nana,5\" tall\n", nil)

	rows, err := a.All(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []core.Row{{"ana", `5" tall`}}, rows)
}

func TestConnect_Idempotent(t *testing.T) {
	a := newAdapter(t, t.TempDir(), "f.csv", "x,y\n1,2\n", nil)

	flat := a.Handle()
	stream := flat.Handle()
	require.NoError(t, a.Connect(context.Background()))
	require.NoError(t, a.Connect(context.Background()))
	assert.Same(t, flat, a.Handle())
	assert.Same(t, stream, a.Handle().Handle(), "reconnecting must not reopen the file")

	rows, err := a.All(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []core.Row{{"1", "2"}}, rows)

	require.NoError(t, a.Disconnect())
	require.NoError(t, a.Disconnect())
	assert.False(t, a.IsConnected())
	_, err = a.All(context.Background())
	assert.ErrorIs(t, err, core.ErrNotConnected)
}

func TestWriteMode_TruncatesOnce(t *testing.T) {
	dir := t.TempDir()
	a := newAdapter(t, dir, "f.csv", "old,data\n", func(o *Options) {
		o.Mode = "w"
		o.HasHeader = false
	})

	require.NoError(t, a.InsertList(context.Background(), []string{"new", "row"}))
	require.NoError(t, a.Disconnect())
	require.NoError(t, a.Connect(context.Background()))

	rows, err := a.All(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []core.Row{{"new", "row"}}, rows)
}

func TestIsEmptyAndRename(t *testing.T) {
	dir := t.TempDir()
	a := newAdapter(t, dir, "f.csv", "", nil)

	empty, err := a.IsEmpty(context.Background())
	require.NoError(t, err)
	assert.True(t, empty)

	require.NoError(t, a.InsertList(context.Background(), []string{"a"}))
	empty, err = a.IsEmpty(context.Background())
	require.NoError(t, err)
	assert.False(t, empty)

	require.NoError(t, a.Rename(context.Background(), "g.csv"))
	assert.Equal(t, filepath.Join(dir, "g.csv"), a.Filepath().String())
	fields, err := a.FieldList(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, fields)
}

func TestSquashedOptionsDecode(t *testing.T) {
	opts := DefaultOptions()
	require.NoError(t, adapter.DecodeParams(adapter.Params{
		"path":       "/data",
		"filename":   "people.csv",
		"mode":       "a+",
		"has_header": "false",
		"delimiter":  ";",
	}, &opts))

	assert.Equal(t, flatfile.Options{Path: "/data", Filename: "people.csv", Mode: "a+", Encoding: "utf-8"}, opts.Options)
	assert.False(t, opts.HasHeader)
	assert.Equal(t, ";", opts.Delimiter)
	assert.Equal(t, `"`, opts.Quote)
}

package viewer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"csvtree/internal/dataset"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func loaded(t *testing.T, content string) *Viewer {
	t.Helper()
	path := writeFile(t, t.TempDir(), "people.csv", content)
	v := New(nil)
	require.NoError(t, v.Load(context.Background(), path))
	require.Equal(t, Ready, v.Status())
	return v
}

func column(v *Viewer, rows []dataset.Record, name string) []string {
	idx := v.Dataset().ColumnIndex(name)
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Cell(idx).String()
	}
	return out
}

func numberedCSV(n int) string {
	var b strings.Builder
	b.WriteString("id,group\n")
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, "%d,g%d\n", i, i%2)
	}
	return b.String()
}

func TestNew(t *testing.T) {
	v := New(nil)
	assert.Equal(t, Idle, v.Status())
	assert.Equal(t, 1, v.CurrentPage())
	assert.Equal(t, 0, v.TotalPages())
	assert.Empty(t, v.Page())
	assert.Empty(t, v.Message())
}

func TestLoad(t *testing.T) {
	v := loaded(t, "name,age\nBob,30\nAmy,25\n")

	assert.Equal(t, "people.csv", v.Name())
	assert.Equal(t, []string{"name", "age"}, v.Dataset().Columns)
	assert.Len(t, v.FilteredRows(), 2)
	assert.NotEmpty(t, v.Dataset().Checksum)
	assert.NoError(t, v.Err())
}

func TestLoad_ReadFailure(t *testing.T) {
	v := New(nil)
	err := v.Load(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))

	assert.ErrorIs(t, err, ErrReadFailure)
	assert.Equal(t, Failed, v.Status())
	assert.Equal(t, "Failed to load file.", v.Message())
	assert.Nil(t, v.Dataset())
	assert.Empty(t, v.Page())
}

func TestLoad_ParseFailure(t *testing.T) {
	path := writeFile(t, t.TempDir(), "broken.csv", "a,b\n1,2,3\n")

	v := New(nil)
	err := v.Load(context.Background(), path)

	assert.ErrorIs(t, err, ErrParseFailure)
	assert.Equal(t, Failed, v.Status())
	assert.Equal(t, "Failed to parse file.", v.Message())
	assert.Nil(t, v.Dataset())
	assert.Empty(t, v.FilteredRows())
}

func TestLoad_CancelledContext(t *testing.T) {
	path := writeFile(t, t.TempDir(), "people.csv", "a\n1\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	v := New(nil)
	err := v.Load(ctx, path)
	assert.ErrorIs(t, err, ErrReadFailure)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoad_FailureReplacesPreviousDataset(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.csv", "a\n1\n")
	bad := writeFile(t, dir, "bad.csv", "a\n1,2\n")

	v := New(nil)
	require.NoError(t, v.Load(context.Background(), good))
	require.Error(t, v.Load(context.Background(), bad))

	assert.Nil(t, v.Dataset())
	assert.Empty(t, v.FilteredRows())
}

func TestFinish_StaleGenerationDropped(t *testing.T) {
	v := New(nil)

	first := v.Begin("first.csv")
	second := v.Begin("second.csv")

	late := &dataset.Dataset{Name: "first.csv", Columns: []string{"a"}, Rows: []dataset.Record{{dataset.Number(1)}}}
	assert.False(t, v.Finish(first, late, nil))
	assert.Equal(t, Loading, v.Status())

	current := &dataset.Dataset{Name: "second.csv", Columns: []string{"b"}}
	assert.True(t, v.Finish(second, current, nil))
	assert.Equal(t, Ready, v.Status())
	assert.Equal(t, []string{"b"}, v.Dataset().Columns)

	// a finished generation cannot complete twice
	assert.False(t, v.Finish(second, late, nil))
	assert.Equal(t, []string{"b"}, v.Dataset().Columns)
}

func TestFinish_UnclassifiedErrorIsParseFailure(t *testing.T) {
	v := New(nil)
	gen := v.Begin("x.csv")
	require.True(t, v.Finish(gen, nil, errors.New("boom")))

	assert.ErrorIs(t, v.Err(), ErrParseFailure)
	assert.Equal(t, "Failed to parse file.", v.Message())
}

func TestBegin_HidesPreviousDataset(t *testing.T) {
	v := loaded(t, "a\n1\n")

	v.Begin("next.csv")
	assert.Equal(t, Loading, v.Status())
	assert.Nil(t, v.Dataset())
	assert.Empty(t, v.Page())
}

func TestConcurrentLoads_LastBeginWins(t *testing.T) {
	v := New(nil)

	var gens []Generation
	for i := 0; i < 10; i++ {
		gens = append(gens, v.Begin(fmt.Sprintf("f%d.csv", i)))
	}

	var wg sync.WaitGroup
	applied := make([]bool, len(gens))
	for i, g := range gens {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ds := &dataset.Dataset{Columns: []string{fmt.Sprint(i)}}
			applied[i] = v.Finish(g, ds, nil)
		}()
	}
	wg.Wait()

	for i, ok := range applied {
		assert.Equal(t, i == len(gens)-1, ok, "generation %d", i)
	}
	assert.Equal(t, []string{"9"}, v.Dataset().Columns)
}

func TestSetSort_Toggle(t *testing.T) {
	v := loaded(t, "name,age\nBob,30\nAmy,25\n")

	cfg := v.SetSort("age")
	assert.Equal(t, SortConfig{Column: "age", Direction: Ascending}, cfg)
	assert.Equal(t, []string{"Amy", "Bob"}, column(v, v.FilteredRows(), "name"))

	cfg = v.SetSort("age")
	assert.Equal(t, Descending, cfg.Direction)
	assert.Equal(t, []string{"Bob", "Amy"}, column(v, v.FilteredRows(), "name"))

	cfg = v.SetSort("age")
	assert.Equal(t, Ascending, cfg.Direction)
	assert.Equal(t, []string{"Amy", "Bob"}, column(v, v.FilteredRows(), "name"))
}

func TestSetSort_NewColumnStartsAscending(t *testing.T) {
	v := loaded(t, "name,age\nBob,30\nAmy,25\nCal,20\n")

	v.SetSort("age")
	v.SetSort("age")
	cfg := v.SetSort("name")

	assert.Equal(t, SortConfig{Column: "name", Direction: Ascending}, cfg)
	assert.Equal(t, []string{"Amy", "Bob", "Cal"}, column(v, v.FilteredRows(), "name"))
}

func TestSetSort_Stable(t *testing.T) {
	v := loaded(t, "name,team\nBob,red\nAmy,blue\nCal,red\nDee,blue\n")

	v.SetSort("team")
	assert.Equal(t, []string{"Amy", "Dee", "Bob", "Cal"}, column(v, v.FilteredRows(), "name"))

	v.SetSort("team")
	assert.Equal(t, []string{"Bob", "Cal", "Amy", "Dee"}, column(v, v.FilteredRows(), "name"))
}

func TestClearSort(t *testing.T) {
	v := loaded(t, "name\nBob\nAmy\n")

	v.SetSort("name")
	v.ClearSort()

	_, ok := v.Sort()
	assert.False(t, ok)
	assert.Equal(t, []string{"Bob", "Amy"}, column(v, v.FilteredRows(), "name"))
}

func TestSetSearchQuery(t *testing.T) {
	v := loaded(t, "name,city\nBob,NYC\nAmy,Boston\nCal,nyc\n")

	v.SetSearchQuery("NyC")
	assert.Equal(t, []string{"Bob", "Cal"}, column(v, v.FilteredRows(), "name"))
	assert.Equal(t, "NyC", v.Query())

	v.SetSearchQuery("")
	assert.Len(t, v.FilteredRows(), 3)
}

func TestSearchThenSort(t *testing.T) {
	v := loaded(t, "name,city\nCal,NYC\nAmy,Boston\nBob,nyc\n")

	v.SetSort("name")
	v.SetSearchQuery("nyc")
	assert.Equal(t, []string{"Bob", "Cal"}, column(v, v.FilteredRows(), "name"))
}

func TestPagination(t *testing.T) {
	v := loaded(t, numberedCSV(120))

	assert.Equal(t, 3, v.TotalPages())
	assert.Len(t, v.Page(), 50)

	assert.Equal(t, 3, v.SetPage(5))
	assert.Equal(t, 3, v.CurrentPage())
	page := v.Page()
	require.Len(t, page, 20)
	assert.Equal(t, "101", column(v, page, "id")[0])

	assert.Equal(t, 1, v.SetPage(0))
	assert.Equal(t, 1, v.SetPage(-4))
	assert.Equal(t, 2, v.SetPage(2))
}

func TestSetPage_NoRows(t *testing.T) {
	v := loaded(t, "a\n")
	assert.Equal(t, 0, v.TotalPages())
	assert.Equal(t, 1, v.SetPage(3))
	assert.Empty(t, v.Page())
}

func TestSetPage_DoesNotChangeFilteredRows(t *testing.T) {
	v := loaded(t, numberedCSV(120))
	v.SetSort("id")
	v.SetSort("id")
	before := v.FilteredRows()

	v.SetPage(2)
	assert.Equal(t, before, v.FilteredRows())
}

func TestPageResets(t *testing.T) {
	v := loaded(t, numberedCSV(120))

	v.SetPage(3)
	v.SetSearchQuery("g1")
	assert.Equal(t, 1, v.CurrentPage())

	v.SetPage(2)
	v.SetSort("id")
	assert.Equal(t, 1, v.CurrentPage())
}

func TestViewStateSurvivesReload(t *testing.T) {
	dir := t.TempDir()
	first := writeFile(t, dir, "first.csv", "name\nBob\nAmy\nBea\n")
	second := writeFile(t, dir, "second.csv", "name\nZed\nBen\nAl\n")

	v := New(nil)
	require.NoError(t, v.Load(context.Background(), first))
	v.SetSearchQuery("b")
	v.SetSort("name")

	require.NoError(t, v.Load(context.Background(), second))
	assert.Equal(t, "second.csv", v.Name())
	assert.Equal(t, []string{"Ben"}, column(v, v.FilteredRows(), "name"))
	assert.Equal(t, 1, v.CurrentPage())
}

func TestExport(t *testing.T) {
	v := loaded(t, "name,age\nBob,30\nAmy,25\nCal,41\n")
	v.SetSearchQuery("a")
	v.SetSort("age")

	var buf bytes.Buffer
	require.NoError(t, v.Export(&buf, dataset.FormatCSV))
	assert.Equal(t, "name,age\nAmy,25\nCal,41\n", buf.String())

	// export reflects state at the moment of the call
	v.SetSort("age")
	buf.Reset()
	require.NoError(t, v.Export(&buf, dataset.FormatCSV))
	assert.Equal(t, "name,age\nCal,41\nAmy,25\n", buf.String())
}

func TestExport_RoundTrip(t *testing.T) {
	v := loaded(t, "name,city,score\nBob,NYC,1.5\nAmy,Boston,\nCal,nyc,true\n")
	v.SetSearchQuery("ny")

	var buf bytes.Buffer
	require.NoError(t, v.Export(&buf, dataset.FormatCSV))

	back, err := dataset.ParseCSV(&buf)
	require.NoError(t, err)

	again := dataset.Filter(back.Rows, "ny")
	assert.Equal(t, v.FilteredRows(), again)
}

func TestExport_NoDataset(t *testing.T) {
	v := New(nil)
	var buf bytes.Buffer
	assert.ErrorIs(t, v.Export(&buf, dataset.FormatCSV), ErrNoDataset)

	_, err := v.WriteExport(t.TempDir(), dataset.FormatCSV)
	assert.ErrorIs(t, err, ErrNoDataset)
}

func TestWriteExport(t *testing.T) {
	v := loaded(t, "name\nBob\nAmy\n")
	v.SetSearchQuery("amy")

	dir := t.TempDir()
	path, err := v.WriteExport(dir, dataset.FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "filtered_people.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "name\nAmy\n", string(data))

	assert.Equal(t, "filtered_people.json", v.ExportFilename(dataset.FormatJSON))
}

func TestWriteExportTo_UnsupportedFormatLeavesNoFile(t *testing.T) {
	v := loaded(t, "name\nBob\n")
	path := filepath.Join(t.TempDir(), "out.xml")

	err := v.WriteExportTo(path, dataset.Format("xml"))
	assert.ErrorIs(t, err, dataset.ErrUnsupportedFormat)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

package core

import (
	"reflect"
	"testing"
)

func TestNewTablePadsAndTruncates(t *testing.T) {
	tbl := NewTable([]string{"a", "b"}, [][]string{{"1"}, {"1", "2", "3"}})
	want := [][]string{{"1", ""}, {"1", "2"}}
	if !reflect.DeepEqual(tbl.Rows, want) {
		t.Fatalf("rows = %v, want %v", tbl.Rows, want)
	}
}

func TestProjectSynthesizesMissingColumns(t *testing.T) {
	tbl := NewTable([]string{"Date", "Extra", "Description"}, [][]string{{"1/1/2025", "x", "coffee"}})
	got := tbl.Project([]string{"Date", "Description", "Category"})
	if !reflect.DeepEqual(got.Columns, []string{"Date", "Description", "Category"}) {
		t.Fatalf("columns = %v", got.Columns)
	}
	if !reflect.DeepEqual(got.Rows[0], []string{"1/1/2025", "coffee", ""}) {
		t.Fatalf("row = %v", got.Rows[0])
	}
}

func TestWithColumnAppendsOrOverwrites(t *testing.T) {
	tbl := NewTable([]string{"a"}, [][]string{{"1"}, {"2"}})
	got := tbl.WithColumn("src", "s1")
	if !reflect.DeepEqual(got.Columns, []string{"a", "src"}) || got.Rows[1][1] != "s1" {
		t.Fatalf("unexpected table: %+v", got)
	}
	again := got.WithColumn("src", "s2")
	if len(again.Columns) != 2 || again.Rows[0][1] != "s2" {
		t.Fatalf("expected overwrite, got %+v", again)
	}
	if got.Rows[0][1] != "s1" {
		t.Fatalf("original table mutated: %+v", got)
	}
}

func TestValuesIncludesHeader(t *testing.T) {
	tbl := Table{Columns: []string{"a", "b"}, Rows: [][]string{{"1"}}}
	want := [][]string{{"a", "b"}, {"1", ""}}
	if got := tbl.Values(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Values() = %v, want %v", got, want)
	}
}

func TestEmptyTableSentinel(t *testing.T) {
	if !EmptyTable.IsEmpty() {
		t.Fatal("EmptyTable should be empty")
	}
	blank := NewTable([]string{"a"}, [][]string{{""}})
	if blank.IsEmpty() {
		t.Fatal("table with columns and blank cells is not the sentinel")
	}
}

func TestIsBlankRow(t *testing.T) {
	if !IsBlankRow([]string{"", "  ", "\t"}) {
		t.Fatal("expected blank")
	}
	if IsBlankRow([]string{"", "x"}) {
		t.Fatal("expected non-blank")
	}
}

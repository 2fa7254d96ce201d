package repository

import "testing"

func TestClausesEmpty(t *testing.T) {
	var w Clauses
	if got := w.SQL(); got != "" {
		t.Errorf("SQL() = %q, want empty", got)
	}
	if got := w.Args(); len(got) != 0 {
		t.Errorf("Args() = %v, want empty", got)
	}
}

func TestClausesRenderInOrder(t *testing.T) {
	var w Clauses
	w.And("a = ?", 1)
	w.AndIf(true, "b >= ?", "2026-01-01")
	w.AndIf(false, "c = ?", "skipped")
	w.And("d LIKE ?", "%x%")

	want := " AND a = ? AND b >= ? AND d LIKE ?"
	if got := w.SQL(); got != want {
		t.Errorf("SQL() = %q, want %q", got, want)
	}
	args := w.Args()
	if len(args) != 3 {
		t.Fatalf("len(args) = %d, want 3", len(args))
	}
	if args[2] != "%x%" {
		t.Errorf("args[2] = %v, want %%x%%", args[2])
	}
}

package activity

import "testing"

func strptr(s string) *string { return &s }

func TestMetaMerge_TaskFieldsShallowMerge(t *testing.T) {
	old := Meta{Task: &TaskMeta{Title: strptr("First"), Description: strptr("old body")}}
	newer := Meta{Task: &TaskMeta{Description: strptr("new body")}}

	got := old.Merge(newer)
	if got.Task == nil {
		t.Fatal("merged task meta is nil")
	}
	if got.Task.Title == nil || *got.Task.Title != "First" {
		t.Error("title from the older meta was lost")
	}
	if got.Task.Description == nil || *got.Task.Description != "new body" {
		t.Error("newer description did not win")
	}
	// Inputs are untouched.
	if *old.Task.Description != "old body" {
		t.Error("merge mutated the older meta")
	}
}

func TestMetaMerge_MoveSupersedes(t *testing.T) {
	old := Meta{Move: &MoveMeta{FromColumnID: "col-a", ToColumnID: "col-b", FromOrder: 0, ToOrder: 2}}
	newer := Meta{Move: &MoveMeta{FromColumnID: "col-b", ToColumnID: "col-c", FromOrder: 2, ToOrder: 1}}

	got := old.Merge(newer)
	if got.Move.ToColumnID != "col-c" || got.Move.ToOrder != 1 {
		t.Errorf("merged move = %+v, want the newer move verbatim", got.Move)
	}
	if got.Move.FromColumnID != "col-b" {
		t.Errorf("from column = %s, want col-b (no field-wise mixing for moves)", got.Move.FromColumnID)
	}
}

func TestMetaMerge_EmptyNewerKeepsOld(t *testing.T) {
	old := Meta{Column: &ColumnMeta{ColumnID: "col-1", Name: strptr("Todo")}}

	got := old.Merge(Meta{})
	if got.Column == nil || got.Column.ColumnID != "col-1" || *got.Column.Name != "Todo" {
		t.Errorf("merge with empty meta = %+v, want old preserved", got.Column)
	}
}

func TestMetaMerge_ColumnName(t *testing.T) {
	old := Meta{Column: &ColumnMeta{ColumnID: "col-1", Name: strptr("Todo")}}
	newer := Meta{Column: &ColumnMeta{ColumnID: "col-1"}}

	got := old.Merge(newer)
	if got.Column.Name == nil || *got.Column.Name != "Todo" {
		t.Error("nil name in newer column meta should not erase the old name")
	}
}

func TestMetaMerge_RawUnion(t *testing.T) {
	old := Meta{Raw: map[string]any{"a": 1, "b": 1}}
	newer := Meta{Raw: map[string]any{"b": 2, "c": 2}}

	got := old.Merge(newer)
	if got.Raw["a"] != 1 || got.Raw["b"] != 2 || got.Raw["c"] != 2 {
		t.Errorf("raw merge = %v", got.Raw)
	}
	if old.Raw["b"] != 1 {
		t.Error("merge mutated the older raw map")
	}
}

func TestActionReducible(t *testing.T) {
	for _, a := range []Action{ActionTaskUpdated, ActionTaskMoved, ActionTaskReordered, ActionColumnUpdated, ActionColumnReordered, ActionCommentUpdated} {
		if !a.Reducible() {
			t.Errorf("%s should be reducible", a)
		}
	}
	for _, a := range []Action{ActionTaskCreated, ActionTaskDeleted, ActionColumnCreated, ActionProjectDeleted, ActionAttachmentUploaded} {
		if a.Reducible() {
			t.Errorf("%s should not be reducible", a)
		}
	}
}

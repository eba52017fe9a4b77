package agent

import (
	"reflect"
	"testing"

	"mytubes/category"
)

func newExecutor(col *category.Collection) (*Executor, *int, *int) {
	saves, refreshes := 0, 0
	return &Executor{
		Collection: col,
		Save:       func() { saves++ },
		Refresh:    func() { refreshes++ },
	}, &saves, &refreshes
}

func TestExecuteCreateThenAssign(t *testing.T) {
	col := category.NewCollection()
	exec, saves, refreshes := newExecutor(col)

	results := exec.Execute([]Command{
		{Action: ActionCreateCategory, Name: "Woodworking"},
		{Action: ActionAssignChannels, ChannelIDs: []string{"UC1", "UC2"}, CategoryID: "woodworking"},
	})

	want := []string{
		`Created category "Woodworking"`,
		`Assigned 2 channel(s) to "Woodworking"`,
	}
	if !reflect.DeepEqual(results, want) {
		t.Errorf("results = %v, want %v", results, want)
	}
	cat := col.ByID("woodworking")
	if cat == nil || len(cat.ChannelIDs) != 2 {
		t.Fatalf("category = %+v, want two members", cat)
	}
	if *saves != 1 || *refreshes != 1 {
		t.Errorf("saves = %d, refreshes = %d, want exactly one each per batch", *saves, *refreshes)
	}
}

func TestExecuteAssignMissingCategory(t *testing.T) {
	col := category.NewCollection()
	exec, _, _ := newExecutor(col)

	results := exec.Execute([]Command{
		{Action: ActionAssignChannels, ChannelIDs: []string{"UC1"}, CategoryID: "ghost"},
	})

	if results[0] != `Category "ghost" not found` {
		t.Errorf("result = %q", results[0])
	}
	if _, ok := col.ForChannel("UC1"); ok {
		t.Error("channel must stay unassigned when the target is missing")
	}
}

func TestExecuteDelete(t *testing.T) {
	col := category.NewCollection()
	col.Ensure("Music")
	exec, _, _ := newExecutor(col)

	results := exec.Execute([]Command{
		{Action: ActionDeleteCategory, ID: "music"},
		{Action: ActionDeleteCategory, ID: "music"},
	})

	want := []string{`Deleted category "Music"`, `Category "music" not found`}
	if !reflect.DeepEqual(results, want) {
		t.Errorf("results = %v, want %v", results, want)
	}
}

func TestExecuteRename(t *testing.T) {
	col := category.NewCollection()
	col.Ensure("Tech")
	exec, _, _ := newExecutor(col)

	results := exec.Execute([]Command{
		{Action: ActionRenameCategory, ID: "tech", Name: "Technology"},
		{Action: ActionRenameCategory, ID: "missing", Name: "Whatever"},
	})

	want := []string{`Renamed "Tech" to "Technology"`, `Category "missing" not found`}
	if !reflect.DeepEqual(results, want) {
		t.Errorf("results = %v, want %v", results, want)
	}
	cat := col.ByID("tech")
	if cat == nil || cat.Name != "Technology" {
		t.Errorf("category after rename = %+v, want original ID with new name", cat)
	}
}

func TestExecuteUnknownAction(t *testing.T) {
	exec, saves, _ := newExecutor(category.NewCollection())

	results := exec.Execute([]Command{{Action: "merge_categories"}})
	if results[0] != "Unknown action: merge_categories" {
		t.Errorf("result = %q", results[0])
	}
	if *saves != 1 {
		t.Errorf("saves = %d, batch still saves once", *saves)
	}
}

func TestExecuteFailuresDoNotStopBatch(t *testing.T) {
	col := category.NewCollection()
	exec, _, _ := newExecutor(col)

	results := exec.Execute([]Command{
		{Action: ActionDeleteCategory, ID: "ghost"},
		{Action: ActionCreateCategory, Name: "Gaming"},
	})

	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}
	if col.ByID("gaming") == nil {
		t.Error("later commands must run after an earlier failure")
	}
}

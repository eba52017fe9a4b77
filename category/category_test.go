package category

import (
	"encoding/json"
	"testing"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Woodworking", "woodworking"},
		{"DIY & Home!!", "diy-home"},
		{"Food & Cooking", "food-cooking"},
		{"  Spaces  ", "spaces"},
		{"Already-Slugged", "already-slugged"},
		{"C++ Tips", "c-tips"},
		{"123 Go", "123-go"},
		{"!!!", ""},
	}
	for _, tt := range tests {
		if got := Slugify(tt.name); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestEnsureIsIdempotent(t *testing.T) {
	col := NewCollection()

	first := col.Ensure("Woodworking")
	second := col.Ensure("Woodworking")

	if first != second {
		t.Error("Ensure() returned different categories for the same name")
	}
	if len(col.Categories) != 1 {
		t.Errorf("len(Categories) = %d, want 1", len(col.Categories))
	}
}

func TestEnsureCollidingNamesReuseCategory(t *testing.T) {
	col := NewCollection()

	first := col.Ensure("DIY & Home")
	second := col.Ensure("diy   home")

	if first != second {
		t.Error("names normalizing to the same id should reuse the category")
	}
	// The existing display name is not updated
	if first.Name != "DIY & Home" {
		t.Errorf("Name = %q, want %q", first.Name, "DIY & Home")
	}
}

func TestAssignMembershipStaysUnique(t *testing.T) {
	col := NewCollection()
	a := col.Ensure("Alpha")
	b := col.Ensure("Beta")

	col.Assign("ch1", a.ID)
	col.Assign("ch1", b.ID)
	col.Assign("ch2", a.ID)
	col.Assign("ch1", a.ID)

	count := 0
	for _, cat := range col.Categories {
		for _, id := range cat.ChannelIDs {
			if id == "ch1" {
				count++
			}
		}
	}
	if count != 1 {
		t.Errorf("ch1 appears in %d membership sets, want 1", count)
	}

	got, ok := col.ForChannel("ch1")
	if !ok || got.ID != a.ID {
		t.Errorf("ForChannel(ch1) = %v, want %q", got, a.ID)
	}
}

func TestAssignUncategorizedClearsMembership(t *testing.T) {
	col := NewCollection()
	a := col.Ensure("Alpha")
	col.Assign("ch1", a.ID)

	col.Assign("ch1", Uncategorized)

	if _, ok := col.ForChannel("ch1"); ok {
		t.Error("channel still categorized after assigning to the sentinel")
	}
}

func TestAssignUnknownCategoryLeavesUnassigned(t *testing.T) {
	col := NewCollection()
	col.Ensure("Alpha")

	col.Assign("ch1", "nope")

	if _, ok := col.ForChannel("ch1"); ok {
		t.Error("assignment to unknown category should leave channel unassigned")
	}
}

func TestAssignNeverAssignedChannelIsNoOp(t *testing.T) {
	col := NewCollection()
	col.Assign("ghost", Uncategorized)

	if !col.IsEmpty() {
		t.Error("collection should remain empty")
	}
}

func TestRenameKeepsIDStable(t *testing.T) {
	col := NewCollection()
	cat := col.Ensure("Old Name")

	if !col.Rename(cat.ID, "Completely Different") {
		t.Fatal("Rename() = false, want true")
	}
	if cat.Name != "Completely Different" {
		t.Errorf("Name = %q, want %q", cat.Name, "Completely Different")
	}
	if cat.ID != "old-name" {
		t.Errorf("ID = %q, want %q (stable across rename)", cat.ID, "old-name")
	}
	if col.Rename("missing", "x") {
		t.Error("Rename() on missing id = true, want false")
	}
}

func TestDeleteOrphansMembers(t *testing.T) {
	col := NewCollection()
	cat := col.Ensure("Doomed")
	other := col.Ensure("Other")
	col.Assign("ch1", cat.ID)
	col.Assign("ch2", cat.ID)

	if !col.Delete(cat.ID) {
		t.Fatal("Delete() = false, want true")
	}

	// Members become uncategorized, not migrated
	if _, ok := col.ForChannel("ch1"); ok {
		t.Error("ch1 still categorized after delete")
	}
	if _, ok := col.ForChannel("ch2"); ok {
		t.Error("ch2 still categorized after delete")
	}
	if len(other.ChannelIDs) != 0 {
		t.Error("orphaned channels were migrated to another category")
	}

	if col.Delete(cat.ID) {
		t.Error("Delete() on missing id = true, want false")
	}
}

func TestForChannelCollectionOrder(t *testing.T) {
	col := NewCollection()
	col.Ensure("First")
	second := col.Ensure("Second")
	col.Assign("ch1", second.ID)

	got, ok := col.ForChannel("ch1")
	if !ok || got.ID != "second" {
		t.Errorf("ForChannel(ch1) = %v, want second", got)
	}
	if _, ok := col.ForChannel("unknown"); ok {
		t.Error("ForChannel(unknown) = true, want false")
	}
}

func TestCollectionJSONShape(t *testing.T) {
	col := NewCollection()
	cat := col.Ensure("Software Dev")
	col.Assign("UC123", cat.ID)

	raw, err := json.Marshal(col)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `{"categories":[{"id":"software-dev","name":"Software Dev","channelIds":["UC123"]}]}`
	if string(raw) != want {
		t.Errorf("JSON = %s, want %s", raw, want)
	}
}

func TestParseCollection(t *testing.T) {
	raw := []byte(`{"categories":[{"id":"music","name":"Music","channelIds":["UC1","UC2"]}]}`)
	col, err := ParseCollection(raw)
	if err != nil {
		t.Fatalf("ParseCollection() error = %v", err)
	}
	if len(col.Categories) != 1 || col.Categories[0].ID != "music" {
		t.Errorf("unexpected collection: %+v", col)
	}
}

func TestParseCollectionRejectsBadShapes(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"not json", `{oops`},
		{"missing categories", `{"something":"else"}`},
		{"categories not array", `{"categories":"nope"}`},
		{"entry missing id", `{"categories":[{"name":"X","channelIds":[]}]}`},
		{"entry missing name", `{"categories":[{"id":"x","channelIds":[]}]}`},
	}
	for _, tc := range cases {
		if _, err := ParseCollection([]byte(tc.raw)); err == nil {
			t.Errorf("%s: ParseCollection() error = nil, want error", tc.name)
		}
	}
}

func TestParseCollectionDefaultsNilChannelIDs(t *testing.T) {
	col, err := ParseCollection([]byte(`{"categories":[{"id":"x","name":"X"}]}`))
	if err != nil {
		t.Fatalf("ParseCollection() error = %v", err)
	}
	if col.Categories[0].ChannelIDs == nil {
		t.Error("ChannelIDs = nil, want empty slice")
	}
}

package engine

import (
	"context"
	"testing"

	"github.com/nextlevelbuilder/pagewheel/internal/emote"
)

func testGroups() ([]map[emote.Key]Page, []Page) {
	groups := []map[emote.Key]Page{
		{emote.Unicode("🍎"): {Content: "apples-0"}},
		{emote.Unicode("🍊"): {Content: "oranges-1"}},
		{emote.Unicode("🍇"): {Content: "grapes-2"}},
	}
	faces := []Page{
		{Content: "face-0"},
		{Content: "face-1"},
		{Content: "face-2"},
	}
	return groups, faces
}

func TestPaginoCategorizeSetupIcons(t *testing.T) {
	e, fc, _ := newTestEngine(t, Policies{})
	groups, faces := testGroups()

	if err := e.PaginoCategorize(context.Background(), testRef("m1"), groups, faces, Options{}); err != nil {
		t.Fatalf("PaginoCategorize: %v", err)
	}

	// Nav icons (◀ ❎ ▶) plus the first group's category icon.
	got := fc.addedNames()
	if len(got) != 4 {
		t.Fatalf("attached %v, want 4 icons", got)
	}
	if got[len(got)-1] != "🍎" {
		t.Errorf("last attached icon = %q, want the first group's category", got[len(got)-1])
	}
}

func TestPaginoCategorizeMoveRendersFaceAndSwapsIcons(t *testing.T) {
	e, fc, _ := newTestEngine(t, Policies{})
	groups, faces := testGroups()

	if err := e.PaginoCategorize(context.Background(), testRef("m1"), groups, faces, Options{}); err != nil {
		t.Fatalf("PaginoCategorize: %v", err)
	}
	clearsBefore := fc.clearCount()

	press(e, "m1", emote.Next)

	got := fc.editContents()
	if len(got) != 1 || got[0] != "face-1" {
		t.Errorf("move rendered %v, want [face-1]", got)
	}
	if fc.clearCount() != clearsBefore+1 {
		t.Error("move should clear the old reaction set")
	}
	added := fc.addedNames()
	if len(added) == 0 || added[len(added)-1] != "🍊" {
		t.Errorf("move should attach the new group's icon, attached %v", added)
	}
}

func TestPaginoCategorizeSelectWithinGroup(t *testing.T) {
	e, fc, _ := newTestEngine(t, Policies{})
	groups, faces := testGroups()

	if err := e.PaginoCategorize(context.Background(), testRef("m1"), groups, faces, Options{}); err != nil {
		t.Fatalf("PaginoCategorize: %v", err)
	}

	pressIcon(e, "m1", emote.Unicode("🍎"))
	pressIcon(e, "m1", emote.Unicode("🍎")) // repress: dropped

	got := fc.editContents()
	if len(got) != 1 || got[0] != "apples-0" {
		t.Errorf("rendered %v, want [apples-0]", got)
	}
}

func TestPaginoCategorizeMoveResetsActiveCategory(t *testing.T) {
	e, fc, _ := newTestEngine(t, Policies{})
	groups, faces := testGroups()

	if err := e.PaginoCategorize(context.Background(), testRef("m1"), groups, faces, Options{}); err != nil {
		t.Fatalf("PaginoCategorize: %v", err)
	}

	pressIcon(e, "m1", emote.Unicode("🍎"))
	press(e, "m1", emote.Next)
	press(e, "m1", emote.Previous)
	// Back at index 0, the earlier selection no longer counts as active.
	pressIcon(e, "m1", emote.Unicode("🍎"))

	want := []string{"apples-0", "face-1", "face-0", "apples-0"}
	got := fc.editContents()
	if len(got) != len(want) {
		t.Fatalf("rendered %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("render %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestPaginoCategorizeSkipClampsToLast(t *testing.T) {
	e, fc, _ := newTestEngine(t, Policies{})
	groups, faces := testGroups()

	opts := Options{SkipAmount: 10}
	if err := e.PaginoCategorize(context.Background(), testRef("m1"), groups, faces, opts); err != nil {
		t.Fatalf("PaginoCategorize: %v", err)
	}

	press(e, "m1", emote.SkipForward)
	got := fc.editContents()
	if len(got) != 1 || got[0] != "face-2" {
		t.Errorf("oversized skip rendered %v, want [face-2]", got)
	}

	// Another skip forward has nowhere to go.
	press(e, "m1", emote.SkipForward)
	if got := fc.editContents(); len(got) != 1 {
		t.Errorf("skip at the last index rendered %v", got)
	}
}

func TestPaginoCategorizeWithoutFaces(t *testing.T) {
	e, fc, _ := newTestEngine(t, Policies{})
	groups, _ := testGroups()

	if err := e.PaginoCategorize(context.Background(), testRef("m1"), groups, nil, Options{}); err != nil {
		t.Fatalf("PaginoCategorize: %v", err)
	}

	// No faces: moving swaps reactions but renders nothing until a
	// category is picked.
	press(e, "m1", emote.Next)
	if got := fc.editContents(); len(got) != 0 {
		t.Errorf("faceless move rendered %v", got)
	}

	pressIcon(e, "m1", emote.Unicode("🍊"))
	got := fc.editContents()
	if len(got) != 1 || got[0] != "oranges-1" {
		t.Errorf("rendered %v, want [oranges-1]", got)
	}
}

func TestPaginoCategorizeCancel(t *testing.T) {
	e, _, _ := newTestEngine(t, Policies{})
	groups, faces := testGroups()

	if err := e.PaginoCategorize(context.Background(), testRef("m1"), groups, faces, Options{}); err != nil {
		t.Fatalf("PaginoCategorize: %v", err)
	}

	press(e, "m1", emote.Cancel)
	if e.Sessions() != 0 {
		t.Error("cancel icon did not end the session")
	}
}

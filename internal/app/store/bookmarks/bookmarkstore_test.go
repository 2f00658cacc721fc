package bookmarkstore_test

import (
	"errors"
	"testing"

	bookmarkstore "github.com/moimhub/moimhub/internal/app/store/bookmarks"
	"github.com/moimhub/moimhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func assertOrder(t *testing.T, store *bookmarkstore.Store, userID string, wantTitles []string) {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	bms, err := store.List(ctx, userID)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(bms) != len(wantTitles) {
		t.Fatalf("list length: got %d, want %d", len(bms), len(wantTitles))
	}
	for i, bm := range bms {
		if bm.Title != wantTitles[i] {
			t.Errorf("position %d: got %q, want %q", i, bm.Title, wantTitles[i])
		}
		if bm.Order != i {
			t.Errorf("position %d: order field is %d, want dense index %d", i, bm.Order, i)
		}
	}
}

func TestStore_Add_AppendsAtEnd(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := bookmarkstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for _, title := range []string{"first", "second", "third"} {
		if _, err := store.Add(ctx, "u1", title, "https://example.com/"+title); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}
	assertOrder(t, store, "u1", []string{"first", "second", "third"})
}

func TestStore_Remove_Renumbers(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := bookmarkstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	var ids []primitive.ObjectID
	for _, title := range []string{"a", "b", "c", "d"} {
		bm, err := store.Add(ctx, "u1", title, "https://example.com")
		if err != nil {
			t.Fatalf("Add failed: %v", err)
		}
		ids = append(ids, bm.ID)
	}

	if err := store.Remove(ctx, "u1", ids[1]); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	assertOrder(t, store, "u1", []string{"a", "c", "d"})

	if err := store.Remove(ctx, "u1", ids[1]); !errors.Is(err, bookmarkstore.ErrNotFound) {
		t.Errorf("repeated remove: got %v, want ErrNotFound", err)
	}
}

func TestStore_Remove_WrongUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := bookmarkstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	bm, err := store.Add(ctx, "u1", "mine", "https://example.com")
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if err := store.Remove(ctx, "u2", bm.ID); !errors.Is(err, bookmarkstore.ErrNotFound) {
		t.Errorf("cross-user remove: got %v, want ErrNotFound", err)
	}
	assertOrder(t, store, "u1", []string{"mine"})
}

func TestStore_Move(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := bookmarkstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	var ids []primitive.ObjectID
	for _, title := range []string{"a", "b", "c", "d"} {
		bm, err := store.Add(ctx, "u1", title, "https://example.com")
		if err != nil {
			t.Fatalf("Add failed: %v", err)
		}
		ids = append(ids, bm.ID)
	}

	// Move "a" toward the back.
	if err := store.Move(ctx, "u1", ids[0], 2); err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	assertOrder(t, store, "u1", []string{"b", "c", "a", "d"})

	// Move "d" to the front.
	if err := store.Move(ctx, "u1", ids[3], 0); err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	assertOrder(t, store, "u1", []string{"d", "b", "c", "a"})

	// Out-of-range indexes clamp.
	if err := store.Move(ctx, "u1", ids[3], 99); err != nil {
		t.Fatalf("Move (clamp) failed: %v", err)
	}
	assertOrder(t, store, "u1", []string{"b", "c", "a", "d"})

	// Moving to the current position is a no-op.
	if err := store.Move(ctx, "u1", ids[3], 3); err != nil {
		t.Fatalf("Move (no-op) failed: %v", err)
	}
	assertOrder(t, store, "u1", []string{"b", "c", "a", "d"})
}

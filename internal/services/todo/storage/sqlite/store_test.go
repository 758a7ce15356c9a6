package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/tidemark/tidemark/internal/services/todo/storage"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "todo.db"))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("Close returned error: %v", err)
		}
	})
	return store
}

func testTodo(id, userID string) storage.TodoRecord {
	return storage.TodoRecord{
		ID:          id,
		UserID:      userID,
		Title:       "water plants",
		DueDate:     "2026-01-05",
		CreatedAtMs: 1000,
		UpdatedAtMs: 1000,
	}
}

func testSeries(id, userID string) storage.SeriesRecord {
	return storage.SeriesRecord{
		ID:          id,
		UserID:      userID,
		Title:       "daily standup",
		Rule:        "FREQ=DAILY",
		StartDate:   "2026-01-01",
		CreatedAtMs: 1000,
		UpdatedAtMs: 1000,
	}
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open(""); err == nil {
		t.Fatal("Open with empty path should fail")
	}
}

func TestTodoRoundTrip(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	record := testTodo("todo-1", "user-1")
	if err := store.PutTodo(ctx, record); err != nil {
		t.Fatalf("PutTodo returned error: %v", err)
	}

	got, err := store.GetTodo(ctx, "user-1", "todo-1")
	if err != nil {
		t.Fatalf("GetTodo returned error: %v", err)
	}
	if got != record {
		t.Fatalf("GetTodo = %+v, want %+v", got, record)
	}

	record.Title = "water the plants"
	record.Completed = true
	record.CompletedAtMs = 2000
	record.UpdatedAtMs = 2000
	if err := store.PutTodo(ctx, record); err != nil {
		t.Fatalf("PutTodo update returned error: %v", err)
	}
	got, err = store.GetTodo(ctx, "user-1", "todo-1")
	if err != nil {
		t.Fatalf("GetTodo after update returned error: %v", err)
	}
	if !got.Completed || got.Title != "water the plants" {
		t.Fatalf("GetTodo after update = %+v", got)
	}
}

func TestGetTodoScopesToOwner(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	if err := store.PutTodo(ctx, testTodo("todo-1", "user-1")); err != nil {
		t.Fatalf("PutTodo returned error: %v", err)
	}
	if _, err := store.GetTodo(ctx, "user-2", "todo-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("GetTodo for other user = %v, want ErrNotFound", err)
	}
	if err := store.DeleteTodo(ctx, "user-2", "todo-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("DeleteTodo for other user = %v, want ErrNotFound", err)
	}
}

func TestListTodosFilters(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	done := testTodo("todo-done", "user-1")
	done.Completed = true
	done.DueDate = "2026-01-02"
	open := testTodo("todo-open", "user-1")
	open.DueDate = "2026-01-10"
	undated := testTodo("todo-undated", "user-1")
	undated.DueDate = ""
	other := testTodo("todo-other", "user-2")

	for _, record := range []storage.TodoRecord{done, open, undated, other} {
		if err := store.PutTodo(ctx, record); err != nil {
			t.Fatalf("PutTodo(%s) returned error: %v", record.ID, err)
		}
	}

	all, err := store.ListTodos(ctx, "user-1", storage.TodoFilter{})
	if err != nil {
		t.Fatalf("ListTodos returned error: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("ListTodos returned %d records, want 3", len(all))
	}

	completed := true
	doneOnly, err := store.ListTodos(ctx, "user-1", storage.TodoFilter{Completed: &completed})
	if err != nil {
		t.Fatalf("ListTodos completed returned error: %v", err)
	}
	if len(doneOnly) != 1 || doneOnly[0].ID != "todo-done" {
		t.Fatalf("ListTodos completed = %+v", doneOnly)
	}

	ranged, err := store.ListTodos(ctx, "user-1", storage.TodoFilter{
		DueFrom: "2026-01-05",
		DueTo:   "2026-01-31",
	})
	if err != nil {
		t.Fatalf("ListTodos ranged returned error: %v", err)
	}
	if len(ranged) != 1 || ranged[0].ID != "todo-open" {
		t.Fatalf("ListTodos ranged = %+v", ranged)
	}
}

func TestSeriesRoundTrip(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	record := testSeries("series-1", "user-1")
	if err := store.PutSeries(ctx, record); err != nil {
		t.Fatalf("PutSeries returned error: %v", err)
	}

	got, err := store.GetSeries(ctx, "user-1", "series-1")
	if err != nil {
		t.Fatalf("GetSeries returned error: %v", err)
	}
	if got != record {
		t.Fatalf("GetSeries = %+v, want %+v", got, record)
	}

	byID, err := store.GetSeriesByID(ctx, "series-1")
	if err != nil {
		t.Fatalf("GetSeriesByID returned error: %v", err)
	}
	if byID != record {
		t.Fatalf("GetSeriesByID = %+v, want %+v", byID, record)
	}

	if _, err := store.GetSeries(ctx, "user-2", "series-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("GetSeries for other user = %v, want ErrNotFound", err)
	}
}

func TestListAllSeriesSpansUsers(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	if err := store.PutSeries(ctx, testSeries("series-a", "user-1")); err != nil {
		t.Fatalf("PutSeries returned error: %v", err)
	}
	if err := store.PutSeries(ctx, testSeries("series-b", "user-2")); err != nil {
		t.Fatalf("PutSeries returned error: %v", err)
	}

	all, err := store.ListAllSeries(ctx)
	if err != nil {
		t.Fatalf("ListAllSeries returned error: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("ListAllSeries returned %d records, want 2", len(all))
	}

	mine, err := store.ListSeries(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListSeries returned error: %v", err)
	}
	if len(mine) != 1 || mine[0].ID != "series-a" {
		t.Fatalf("ListSeries = %+v", mine)
	}
}

func TestMaterializeOccurrencesIgnoresDuplicates(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	if err := store.PutSeries(ctx, testSeries("series-1", "user-1")); err != nil {
		t.Fatalf("PutSeries returned error: %v", err)
	}

	batch := []storage.OccurrenceRecord{
		{ID: "occ-1", SeriesID: "series-1", Date: "2026-01-01", Status: "pending", CreatedAtMs: 1000, UpdatedAtMs: 1000},
		{ID: "occ-2", SeriesID: "series-1", Date: "2026-01-02", Status: "pending", CreatedAtMs: 1000, UpdatedAtMs: 1000},
	}
	inserted, err := store.MaterializeOccurrences(ctx, "series-1", batch, "2026-01-02")
	if err != nil {
		t.Fatalf("MaterializeOccurrences returned error: %v", err)
	}
	if inserted != 2 {
		t.Fatalf("MaterializeOccurrences inserted %d, want 2", inserted)
	}

	// Same dates with fresh ids, plus one genuinely new date.
	again := []storage.OccurrenceRecord{
		{ID: "occ-3", SeriesID: "series-1", Date: "2026-01-02", Status: "pending", CreatedAtMs: 2000, UpdatedAtMs: 2000},
		{ID: "occ-4", SeriesID: "series-1", Date: "2026-01-03", Status: "pending", CreatedAtMs: 2000, UpdatedAtMs: 2000},
	}
	inserted, err = store.MaterializeOccurrences(ctx, "series-1", again, "2026-01-03")
	if err != nil {
		t.Fatalf("MaterializeOccurrences repeat returned error: %v", err)
	}
	if inserted != 1 {
		t.Fatalf("MaterializeOccurrences repeat inserted %d, want 1", inserted)
	}

	series, err := store.GetSeriesByID(ctx, "series-1")
	if err != nil {
		t.Fatalf("GetSeriesByID returned error: %v", err)
	}
	if series.HighWater != "2026-01-03" {
		t.Fatalf("series high water = %q, want 2026-01-03", series.HighWater)
	}
	if series.OccurrenceCount != 3 {
		t.Fatalf("series occurrence count = %d, want 3", series.OccurrenceCount)
	}
}

func TestMaterializeOccurrencesKeepsHighWaterMonotonic(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	series := testSeries("series-1", "user-1")
	series.HighWater = "2026-01-10"
	series.OccurrenceCount = 10
	if err := store.PutSeries(ctx, series); err != nil {
		t.Fatalf("PutSeries returned error: %v", err)
	}

	// A stale sweep reporting an older mark must not move it backwards.
	stale := []storage.OccurrenceRecord{
		{ID: "occ-stale", SeriesID: "series-1", Date: "2026-01-04", Status: "pending", CreatedAtMs: 1000, UpdatedAtMs: 1000},
	}
	if _, err := store.MaterializeOccurrences(ctx, "series-1", stale, "2026-01-04"); err != nil {
		t.Fatalf("MaterializeOccurrences returned error: %v", err)
	}

	got, err := store.GetSeriesByID(ctx, "series-1")
	if err != nil {
		t.Fatalf("GetSeriesByID returned error: %v", err)
	}
	if got.HighWater != "2026-01-10" {
		t.Fatalf("series high water = %q, want 2026-01-10", got.HighWater)
	}
}

func TestMaterializeOccurrencesMissingSeries(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	_, err := store.MaterializeOccurrences(ctx, "missing", nil, "2026-01-01")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("MaterializeOccurrences for missing series = %v, want ErrNotFound", err)
	}
}

func TestListOccurrencesScopesAndBounds(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	if err := store.PutSeries(ctx, testSeries("series-1", "user-1")); err != nil {
		t.Fatalf("PutSeries returned error: %v", err)
	}
	if err := store.PutSeries(ctx, testSeries("series-2", "user-2")); err != nil {
		t.Fatalf("PutSeries returned error: %v", err)
	}

	mine := []storage.OccurrenceRecord{
		{ID: "occ-1", SeriesID: "series-1", Date: "2026-01-01", Status: "pending", CreatedAtMs: 1000, UpdatedAtMs: 1000},
		{ID: "occ-2", SeriesID: "series-1", Date: "2026-01-05", Status: "pending", CreatedAtMs: 1000, UpdatedAtMs: 1000},
		{ID: "occ-3", SeriesID: "series-1", Date: "2026-01-09", Status: "pending", CreatedAtMs: 1000, UpdatedAtMs: 1000},
	}
	if _, err := store.MaterializeOccurrences(ctx, "series-1", mine, "2026-01-09"); err != nil {
		t.Fatalf("MaterializeOccurrences returned error: %v", err)
	}
	theirs := []storage.OccurrenceRecord{
		{ID: "occ-x", SeriesID: "series-2", Date: "2026-01-05", Status: "pending", CreatedAtMs: 1000, UpdatedAtMs: 1000},
	}
	if _, err := store.MaterializeOccurrences(ctx, "series-2", theirs, "2026-01-05"); err != nil {
		t.Fatalf("MaterializeOccurrences returned error: %v", err)
	}

	got, err := store.ListOccurrences(ctx, "user-1", "2026-01-02", "2026-01-09")
	if err != nil {
		t.Fatalf("ListOccurrences returned error: %v", err)
	}
	if len(got) != 2 || got[0].ID != "occ-2" || got[1].ID != "occ-3" {
		t.Fatalf("ListOccurrences = %+v", got)
	}
}

func TestSetOccurrenceStatus(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	if err := store.PutSeries(ctx, testSeries("series-1", "user-1")); err != nil {
		t.Fatalf("PutSeries returned error: %v", err)
	}
	batch := []storage.OccurrenceRecord{
		{ID: "occ-1", SeriesID: "series-1", Date: "2026-01-01", Status: "pending", CreatedAtMs: 1000, UpdatedAtMs: 1000},
	}
	if _, err := store.MaterializeOccurrences(ctx, "series-1", batch, "2026-01-01"); err != nil {
		t.Fatalf("MaterializeOccurrences returned error: %v", err)
	}

	if err := store.SetOccurrenceStatus(ctx, "occ-1", "completed", 2000, 2000); err != nil {
		t.Fatalf("SetOccurrenceStatus returned error: %v", err)
	}
	got, err := store.GetOccurrence(ctx, "occ-1")
	if err != nil {
		t.Fatalf("GetOccurrence returned error: %v", err)
	}
	if got.Status != "completed" || got.CompletedAtMs != 2000 {
		t.Fatalf("GetOccurrence after complete = %+v", got)
	}

	if err := store.SetOccurrenceStatus(ctx, "missing", "completed", 2000, 2000); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("SetOccurrenceStatus for missing id = %v, want ErrNotFound", err)
	}
}

func TestDeleteSeriesCascadesOccurrences(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	if err := store.PutSeries(ctx, testSeries("series-1", "user-1")); err != nil {
		t.Fatalf("PutSeries returned error: %v", err)
	}
	batch := []storage.OccurrenceRecord{
		{ID: "occ-1", SeriesID: "series-1", Date: "2026-01-01", Status: "pending", CreatedAtMs: 1000, UpdatedAtMs: 1000},
	}
	if _, err := store.MaterializeOccurrences(ctx, "series-1", batch, "2026-01-01"); err != nil {
		t.Fatalf("MaterializeOccurrences returned error: %v", err)
	}

	if err := store.DeleteSeries(ctx, "user-1", "series-1"); err != nil {
		t.Fatalf("DeleteSeries returned error: %v", err)
	}
	if _, err := store.GetOccurrence(ctx, "occ-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("GetOccurrence after cascade = %v, want ErrNotFound", err)
	}
}

func TestConvertTodoToSeries(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	if err := store.PutTodo(ctx, testTodo("todo-1", "user-1")); err != nil {
		t.Fatalf("PutTodo returned error: %v", err)
	}

	series := testSeries("series-1", "user-1")
	if err := store.ConvertTodoToSeries(ctx, "user-1", "todo-1", series); err != nil {
		t.Fatalf("ConvertTodoToSeries returned error: %v", err)
	}

	if _, err := store.GetTodo(ctx, "user-1", "todo-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("GetTodo after convert = %v, want ErrNotFound", err)
	}
	if _, err := store.GetSeries(ctx, "user-1", "series-1"); err != nil {
		t.Fatalf("GetSeries after convert returned error: %v", err)
	}
}

func TestConvertTodoToSeriesMissingTodoRollsBack(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	series := testSeries("series-1", "user-1")
	err := store.ConvertTodoToSeries(ctx, "user-1", "missing", series)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("ConvertTodoToSeries for missing todo = %v, want ErrNotFound", err)
	}
	if _, err := store.GetSeriesByID(ctx, "series-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("series should not exist after rollback, got err %v", err)
	}
}

func TestReplaceSeriesRuleDiscardsPendingTail(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	if err := store.PutSeries(ctx, testSeries("series-1", "user-1")); err != nil {
		t.Fatalf("PutSeries returned error: %v", err)
	}
	batch := []storage.OccurrenceRecord{
		{ID: "occ-1", SeriesID: "series-1", Date: "2026-01-01", Status: "pending", CreatedAtMs: 1000, UpdatedAtMs: 1000},
		{ID: "occ-2", SeriesID: "series-1", Date: "2026-01-02", Status: "pending", CreatedAtMs: 1000, UpdatedAtMs: 1000},
		{ID: "occ-3", SeriesID: "series-1", Date: "2026-01-03", Status: "pending", CreatedAtMs: 1000, UpdatedAtMs: 1000},
	}
	if _, err := store.MaterializeOccurrences(ctx, "series-1", batch, "2026-01-03"); err != nil {
		t.Fatalf("MaterializeOccurrences returned error: %v", err)
	}
	// Resolve the first so it survives the rule change.
	if err := store.SetOccurrenceStatus(ctx, "occ-1", "completed", 1500, 1500); err != nil {
		t.Fatalf("SetOccurrenceStatus returned error: %v", err)
	}

	updated := testSeries("series-1", "user-1")
	updated.Rule = "FREQ=WEEKLY"
	updated.UpdatedAtMs = 2000
	if err := store.ReplaceSeriesRule(ctx, updated, "2026-01-01"); err != nil {
		t.Fatalf("ReplaceSeriesRule returned error: %v", err)
	}

	series, err := store.GetSeriesByID(ctx, "series-1")
	if err != nil {
		t.Fatalf("GetSeriesByID returned error: %v", err)
	}
	if series.Rule != "FREQ=WEEKLY" {
		t.Fatalf("series rule = %q, want FREQ=WEEKLY", series.Rule)
	}
	if series.HighWater != "2026-01-01" {
		t.Fatalf("series high water = %q, want 2026-01-01", series.HighWater)
	}
	if series.OccurrenceCount != 1 {
		t.Fatalf("series occurrence count = %d, want 1", series.OccurrenceCount)
	}

	remaining, err := store.ListOccurrences(ctx, "user-1", "2026-01-01", "2026-12-31")
	if err != nil {
		t.Fatalf("ListOccurrences returned error: %v", err)
	}
	if len(remaining) != 1 || remaining[0].ID != "occ-1" {
		t.Fatalf("ListOccurrences after replace = %+v", remaining)
	}
}

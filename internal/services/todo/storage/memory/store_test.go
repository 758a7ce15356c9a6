package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/tidemark/tidemark/internal/services/todo/storage"
)

func TestTodoLifecycle(t *testing.T) {
	t.Parallel()

	store := New()
	ctx := context.Background()

	record := storage.TodoRecord{
		ID:          "todo-1",
		UserID:      "user-1",
		Title:       "buy milk",
		CreatedAtMs: 1000,
		UpdatedAtMs: 1000,
	}
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

	if _, err := store.GetTodo(ctx, "user-2", "todo-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("GetTodo for other user = %v, want ErrNotFound", err)
	}

	if err := store.DeleteTodo(ctx, "user-1", "todo-1"); err != nil {
		t.Fatalf("DeleteTodo returned error: %v", err)
	}
	if err := store.DeleteTodo(ctx, "user-1", "todo-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("repeat DeleteTodo = %v, want ErrNotFound", err)
	}
}

func TestListTodosFilterAndOrder(t *testing.T) {
	t.Parallel()

	store := New()
	ctx := context.Background()

	records := []storage.TodoRecord{
		{ID: "todo-old", UserID: "user-1", Title: "old", DueDate: "2026-01-02", CreatedAtMs: 1000, UpdatedAtMs: 1000},
		{ID: "todo-new", UserID: "user-1", Title: "new", DueDate: "2026-01-20", CreatedAtMs: 2000, UpdatedAtMs: 2000},
		{ID: "todo-done", UserID: "user-1", Title: "done", Completed: true, CreatedAtMs: 1500, UpdatedAtMs: 1500},
	}
	for _, record := range records {
		if err := store.PutTodo(ctx, record); err != nil {
			t.Fatalf("PutTodo(%s) returned error: %v", record.ID, err)
		}
	}

	all, err := store.ListTodos(ctx, "user-1", storage.TodoFilter{})
	if err != nil {
		t.Fatalf("ListTodos returned error: %v", err)
	}
	if len(all) != 3 || all[0].ID != "todo-new" {
		t.Fatalf("ListTodos = %+v", all)
	}

	open := false
	pending, err := store.ListTodos(ctx, "user-1", storage.TodoFilter{
		Completed: &open,
		DueFrom:   "2026-01-10",
	})
	if err != nil {
		t.Fatalf("ListTodos filtered returned error: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != "todo-new" {
		t.Fatalf("ListTodos filtered = %+v", pending)
	}
}

func TestMaterializeOccurrencesIsIdempotent(t *testing.T) {
	t.Parallel()

	store := New()
	ctx := context.Background()

	series := storage.SeriesRecord{
		ID: "series-1", UserID: "user-1", Title: "standup",
		Rule: "FREQ=DAILY", StartDate: "2026-01-01",
		CreatedAtMs: 1000, UpdatedAtMs: 1000,
	}
	if err := store.PutSeries(ctx, series); err != nil {
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
		t.Fatalf("first materialize inserted %d, want 2", inserted)
	}

	dupes := []storage.OccurrenceRecord{
		{ID: "occ-3", SeriesID: "series-1", Date: "2026-01-02", Status: "pending", CreatedAtMs: 2000, UpdatedAtMs: 2000},
	}
	inserted, err = store.MaterializeOccurrences(ctx, "series-1", dupes, "2026-01-02")
	if err != nil {
		t.Fatalf("repeat MaterializeOccurrences returned error: %v", err)
	}
	if inserted != 0 {
		t.Fatalf("repeat materialize inserted %d, want 0", inserted)
	}

	got, err := store.GetSeriesByID(ctx, "series-1")
	if err != nil {
		t.Fatalf("GetSeriesByID returned error: %v", err)
	}
	if got.HighWater != "2026-01-02" || got.OccurrenceCount != 2 {
		t.Fatalf("series after materialize = %+v", got)
	}
}

func TestDeleteSeriesRemovesOccurrences(t *testing.T) {
	t.Parallel()

	store := New()
	ctx := context.Background()

	series := storage.SeriesRecord{
		ID: "series-1", UserID: "user-1", Title: "standup",
		Rule: "FREQ=DAILY", StartDate: "2026-01-01",
		CreatedAtMs: 1000, UpdatedAtMs: 1000,
	}
	if err := store.PutSeries(ctx, series); err != nil {
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
		t.Fatalf("GetOccurrence after delete = %v, want ErrNotFound", err)
	}
}

func TestReplaceSeriesRuleKeepsResolvedOccurrences(t *testing.T) {
	t.Parallel()

	store := New()
	ctx := context.Background()

	series := storage.SeriesRecord{
		ID: "series-1", UserID: "user-1", Title: "standup",
		Rule: "FREQ=DAILY", StartDate: "2026-01-01",
		CreatedAtMs: 1000, UpdatedAtMs: 1000,
	}
	if err := store.PutSeries(ctx, series); err != nil {
		t.Fatalf("PutSeries returned error: %v", err)
	}
	batch := []storage.OccurrenceRecord{
		{ID: "occ-1", SeriesID: "series-1", Date: "2026-01-01", Status: "pending", CreatedAtMs: 1000, UpdatedAtMs: 1000},
		{ID: "occ-2", SeriesID: "series-1", Date: "2026-01-02", Status: "pending", CreatedAtMs: 1000, UpdatedAtMs: 1000},
	}
	if _, err := store.MaterializeOccurrences(ctx, "series-1", batch, "2026-01-02"); err != nil {
		t.Fatalf("MaterializeOccurrences returned error: %v", err)
	}
	if err := store.SetOccurrenceStatus(ctx, "occ-1", "completed", 1500, 1500); err != nil {
		t.Fatalf("SetOccurrenceStatus returned error: %v", err)
	}

	series.Rule = "FREQ=WEEKLY"
	series.UpdatedAtMs = 2000
	if err := store.ReplaceSeriesRule(ctx, series, "2026-01-01"); err != nil {
		t.Fatalf("ReplaceSeriesRule returned error: %v", err)
	}

	got, err := store.GetSeriesByID(ctx, "series-1")
	if err != nil {
		t.Fatalf("GetSeriesByID returned error: %v", err)
	}
	if got.Rule != "FREQ=WEEKLY" || got.HighWater != "2026-01-01" || got.OccurrenceCount != 1 {
		t.Fatalf("series after replace = %+v", got)
	}
	if _, err := store.GetOccurrence(ctx, "occ-2"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("pending occurrence should be discarded, got err %v", err)
	}
	if _, err := store.GetOccurrence(ctx, "occ-1"); err != nil {
		t.Fatalf("resolved occurrence should survive, got err %v", err)
	}
}

func TestListOccurrencesScopesToUser(t *testing.T) {
	t.Parallel()

	store := New()
	ctx := context.Background()

	for _, series := range []storage.SeriesRecord{
		{ID: "series-1", UserID: "user-1", Title: "mine", Rule: "FREQ=DAILY", StartDate: "2026-01-01", CreatedAtMs: 1000, UpdatedAtMs: 1000},
		{ID: "series-2", UserID: "user-2", Title: "theirs", Rule: "FREQ=DAILY", StartDate: "2026-01-01", CreatedAtMs: 1000, UpdatedAtMs: 1000},
	} {
		if err := store.PutSeries(ctx, series); err != nil {
			t.Fatalf("PutSeries(%s) returned error: %v", series.ID, err)
		}
	}
	mine := []storage.OccurrenceRecord{
		{ID: "occ-1", SeriesID: "series-1", Date: "2026-01-03", Status: "pending", CreatedAtMs: 1000, UpdatedAtMs: 1000},
		{ID: "occ-2", SeriesID: "series-1", Date: "2026-01-01", Status: "pending", CreatedAtMs: 1000, UpdatedAtMs: 1000},
	}
	if _, err := store.MaterializeOccurrences(ctx, "series-1", mine, "2026-01-03"); err != nil {
		t.Fatalf("MaterializeOccurrences returned error: %v", err)
	}
	theirs := []storage.OccurrenceRecord{
		{ID: "occ-x", SeriesID: "series-2", Date: "2026-01-02", Status: "pending", CreatedAtMs: 1000, UpdatedAtMs: 1000},
	}
	if _, err := store.MaterializeOccurrences(ctx, "series-2", theirs, "2026-01-02"); err != nil {
		t.Fatalf("MaterializeOccurrences returned error: %v", err)
	}

	got, err := store.ListOccurrences(ctx, "user-1", "2026-01-01", "2026-01-31")
	if err != nil {
		t.Fatalf("ListOccurrences returned error: %v", err)
	}
	if len(got) != 2 || got[0].ID != "occ-2" || got[1].ID != "occ-1" {
		t.Fatalf("ListOccurrences = %+v", got)
	}
}

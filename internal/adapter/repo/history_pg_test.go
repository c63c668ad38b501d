package repo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"stylestudio/internal/domain"
	"stylestudio/internal/infra"
	"stylestudio/internal/sqlinline"
	"stylestudio/internal/styles"
)

// fakeSQL interprets the history statements against an in-memory table.
type fakeSQL struct {
	mu    sync.Mutex
	rows  map[string]domain.TransformationRecord
	clock time.Time
}

func newFakeSQL() *fakeSQL {
	return &fakeSQL{rows: map[string]domain.TransformationRecord{}, clock: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)}
}

func (f *fakeSQL) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, fmt.Errorf("unexpected exec")
}

func (f *fakeSQL) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	if _, _, err := infra.ExtractMarker(query); err != nil {
		return valuesRow{err: err}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	switch query {
	case sqlinline.QInsertHistory:
		f.clock = f.clock.Add(time.Second)
		rec := domain.TransformationRecord{
			ID:         args[0].(string),
			OwnerID:    args[1].(string),
			SourcePath: args[2].(string),
			ResultPath: args[3].(string),
			StyleName:  args[4].(string),
			CreatedAt:  f.clock,
		}
		f.rows[rec.ID] = rec
		return valuesRow{values: []any{rec.CreatedAt}}
	case sqlinline.QSelectHistoryForOwner, sqlinline.QDeleteHistoryForOwner:
		rec, ok := f.rows[args[0].(string)]
		if !ok || rec.OwnerID != args[1].(string) {
			return valuesRow{err: pgx.ErrNoRows}
		}
		if query == sqlinline.QDeleteHistoryForOwner {
			delete(f.rows, rec.ID)
		}
		return valuesRow{values: recordValues(rec)}
	case sqlinline.QCountHistoryByOwner:
		n := 0
		for _, rec := range f.rows {
			if rec.OwnerID == args[0].(string) {
				n++
			}
		}
		return valuesRow{values: []any{n}}
	}
	return valuesRow{err: fmt.Errorf("unexpected query_row: %s", query)}
}

func (f *fakeSQL) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	if query != sqlinline.QListHistoryByOwner {
		return nil, fmt.Errorf("unexpected query: %s", query)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []domain.TransformationRecord
	for _, rec := range f.rows {
		if rec.OwnerID == args[0].(string) {
			matched = append(matched, rec)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	if limit := args[1].(int); len(matched) > limit {
		matched = matched[:limit]
	}
	rows := &valuesRows{}
	for _, rec := range matched {
		rows.data = append(rows.data, recordValues(rec))
	}
	return rows, nil
}

func recordValues(rec domain.TransformationRecord) []any {
	return []any{rec.ID, rec.OwnerID, rec.SourcePath, rec.ResultPath, rec.StyleName, rec.CreatedAt}
}

func assign(dest []any, values []any) error {
	if len(dest) != len(values) {
		return fmt.Errorf("scan: %d destinations for %d values", len(dest), len(values))
	}
	for i, v := range values {
		switch d := dest[i].(type) {
		case *string:
			*d = v.(string)
		case *time.Time:
			*d = v.(time.Time)
		case *int:
			*d = v.(int)
		default:
			return fmt.Errorf("scan: unsupported destination %T", dest[i])
		}
	}
	return nil
}

type valuesRow struct {
	values []any
	err    error
}

func (r valuesRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(dest, r.values)
}

type valuesRows struct {
	data [][]any
	pos  int
}

func (r *valuesRows) Close()                                       {}
func (r *valuesRows) Err() error                                   { return nil }
func (r *valuesRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *valuesRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *valuesRows) RawValues() [][]byte                          { return nil }
func (r *valuesRows) Conn() *pgx.Conn                              { return nil }

func (r *valuesRows) Next() bool {
	if r.pos >= len(r.data) {
		return false
	}
	r.pos++
	return true
}

func (r *valuesRows) Scan(dest ...any) error { return assign(dest, r.data[r.pos-1]) }

func (r *valuesRows) Values() ([]any, error) { return r.data[r.pos-1], nil }

func TestPGAppendListDelete(t *testing.T) {
	ctx := context.Background()
	ledger := NewHistoryRepositoryPG(newFakeSQL())

	var ids []string
	for i := 0; i < 3; i++ {
		id, err := ledger.Append(ctx, record("owner-a", styles.Cartoon2D, i))
		if err != nil {
			t.Fatalf("Append #%d: %v", i, err)
		}
		ids = append(ids, id)
	}

	list, err := ledger.ListFor(ctx, "owner-a", 0)
	if err != nil {
		t.Fatalf("ListFor: %v", err)
	}
	if len(list) != 3 || list[0].ID != ids[2] {
		t.Fatalf("ListFor newest first mismatch: %+v", list)
	}

	n, err := ledger.CountFor(ctx, "owner-a")
	if err != nil || n != 3 {
		t.Fatalf("CountFor = %d, %v; want 3", n, err)
	}

	if _, err := ledger.DeleteFor(ctx, "owner-b", ids[0]); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("foreign DeleteFor error = %v, want ErrNotFound", err)
	}
	if _, err := ledger.DeleteFor(ctx, "owner-a", ids[0]); err != nil {
		t.Fatalf("DeleteFor: %v", err)
	}
	if _, err := ledger.DeleteFor(ctx, "owner-a", ids[0]); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("second DeleteFor error = %v, want ErrNotFound", err)
	}
}

func TestPGAppendValidation(t *testing.T) {
	ledger := NewHistoryRepositoryPG(newFakeSQL())
	tests := []struct {
		name string
		rec  *domain.TransformationRecord
		want error
	}{
		{"unknown style", record("owner-a", "Pixel Art", 1), domain.ErrUnknownStyle},
		{"missing owner", record("", styles.ComicStyle, 1), domain.ErrInvalidRecord},
		{"bad id", &domain.TransformationRecord{ID: "x", OwnerID: "o", SourcePath: "a", ResultPath: "b", StyleName: styles.ComicStyle}, domain.ErrInvalidRecord},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ledger.Append(context.Background(), tc.rec); !errors.Is(err, tc.want) {
				t.Fatalf("Append error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestPGGetForUnknownID(t *testing.T) {
	ledger := NewHistoryRepositoryPG(newFakeSQL())
	for _, id := range []string{"nope", uuid.NewString()} {
		if _, err := ledger.GetFor(context.Background(), "owner-a", id); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("GetFor(%q) error = %v, want ErrNotFound", id, err)
		}
	}
}

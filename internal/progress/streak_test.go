package progress

import (
	"context"
	"testing"
	"time"

	"github.com/jayainhufs/coding-sam/internal/storage"
)

func TestAdvanceStreak(t *testing.T) {
	loc := time.FixedZone("KST", 9*60*60)
	now := time.Date(2026, 3, 10, 23, 30, 0, 0, loc)

	tests := []struct {
		name string
		prev StreakState
		want StreakState
	}{
		{
			name: "first activity",
			prev: StreakState{},
			want: StreakState{Days: 1, LastActive: "2026-03-10"},
		},
		{
			name: "same day unchanged",
			prev: StreakState{Days: 4, LastActive: "2026-03-10"},
			want: StreakState{Days: 4, LastActive: "2026-03-10"},
		},
		{
			name: "same day keeps stored days",
			prev: StreakState{Days: 0, LastActive: "2026-03-10"},
			want: StreakState{Days: 0, LastActive: "2026-03-10"},
		},
		{
			name: "yesterday extends",
			prev: StreakState{Days: 4, LastActive: "2026-03-09"},
			want: StreakState{Days: 5, LastActive: "2026-03-10"},
		},
		{
			name: "gap resets",
			prev: StreakState{Days: 4, LastActive: "2026-03-07"},
			want: StreakState{Days: 1, LastActive: "2026-03-10"},
		},
		{
			name: "future date resets",
			prev: StreakState{Days: 9, LastActive: "2026-03-12"},
			want: StreakState{Days: 1, LastActive: "2026-03-10"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AdvanceStreak(tt.prev, now, loc); got != tt.want {
				t.Errorf("AdvanceStreak() = %+v; want %+v", got, tt.want)
			}
		})
	}
}

func TestAdvanceStreak_UsesLocalCalendar(t *testing.T) {
	loc := time.FixedZone("KST", 9*60*60)
	// 16:00 UTC on the 9th is already the 10th in KST.
	now := time.Date(2026, 3, 9, 16, 0, 0, 0, time.UTC)

	got := AdvanceStreak(StreakState{Days: 2, LastActive: "2026-03-09"}, now, loc)
	if got.Days != 3 || got.LastActive != "2026-03-10" {
		t.Errorf("AdvanceStreak() = %+v; want 3 days ending 2026-03-10", got)
	}
}

func TestStreak_Touch(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	s := NewStreak(store, time.UTC)

	day := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	for i := range 3 {
		st, err := s.Touch(ctx, day.AddDate(0, 0, i))
		if err != nil {
			t.Fatalf("Touch() error = %v", err)
		}
		if st.Days != i+1 {
			t.Errorf("day %d: Days = %d; want %d", i, st.Days, i+1)
		}
	}

	// A second touch on the same day writes nothing.
	var writes int
	store.Subscribe(KeyStreak, func(string, []byte) { writes++ })
	if _, err := s.Touch(ctx, day.AddDate(0, 0, 2).Add(time.Hour)); err != nil {
		t.Fatalf("Touch() error = %v", err)
	}
	if writes != 0 {
		t.Errorf("writes = %d; want 0", writes)
	}

	cur, err := s.Current(ctx)
	if err != nil {
		t.Fatalf("Current() error = %v", err)
	}
	if cur.Days != 3 || cur.LastActive != "2026-05-03" {
		t.Errorf("Current() = %+v", cur)
	}
}

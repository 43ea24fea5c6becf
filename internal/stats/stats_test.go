package stats

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/dailyfocus/focus/internal/focus"
)

var today = time.Date(2025, 6, 10, 21, 30, 0, 0, time.UTC)

func TestProjectFromDefaults(t *testing.T) {
	prev := focus.DefaultStats()
	got := Project(prev, today, 60)

	want := focus.FocusStats{
		StoriesCompleted:  1,
		MinutesFocused:    1,
		XP:                100,
		Level:             1,
		LastCompletedDate: "2025-06-10",
		DayStreak:         1,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("projection mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(focus.DefaultStats(), prev); diff != "" {
		t.Errorf("input was mutated (-want +got):\n%s", diff)
	}
}

func TestProjectStreak(t *testing.T) {
	tests := []struct {
		name string
		last string
		want int
	}{
		{"yesterday extends", "2025-06-09", 6},
		{"same day keeps", "2025-06-10", 5},
		{"three days ago resets", "2025-06-07", 1},
		{"future date resets", "2025-06-12", 1},
		{"empty resets", "", 1},
		{"garbage resets", "not a date", 1},
		{"impossible date resets", "2025-13-45", 1},
		{"timestamp from yesterday extends", "2025-06-09T23:59:00Z", 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev := focus.FocusStats{DayStreak: 5, LastCompletedDate: tt.last, Level: 1}
			got := Project(prev, today, 120)
			if got.DayStreak != tt.want {
				t.Errorf("dayStreak = %d, want %d", got.DayStreak, tt.want)
			}
			if got.MinutesFocused != 2 {
				t.Errorf("minutesFocused = %v, want 2", got.MinutesFocused)
			}
		})
	}
}

func TestProjectLevelUp(t *testing.T) {
	prev := focus.FocusStats{StoriesCompleted: 2, XP: 200, Level: 1, MinutesFocused: 3.5}
	got := Project(prev, today, 30)

	if got.XP != 300 || got.Level != 2 {
		t.Errorf("xp/level = %d/%d, want 300/2", got.XP, got.Level)
	}
	if got.MinutesFocused != 4 {
		t.Errorf("minutesFocused = %v, want 4", got.MinutesFocused)
	}
	if got.StoriesCompleted != 3 {
		t.Errorf("storiesCompleted = %d, want 3", got.StoriesCompleted)
	}
}

func TestDayDifferenceAcrossDST(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	// 2025-03-09 is 23 hours long in New York.
	now := time.Date(2025, 3, 10, 0, 30, 0, 0, ny)
	diff, ok := DayDifference("2025-03-09", now)
	if !ok || diff != 1 {
		t.Fatalf("DayDifference = %d, %v; want 1, true", diff, ok)
	}

	// Just after midnight counts as a new day even though only minutes passed.
	diff, ok = DayDifference("2025-03-09T23:58:00-04:00", now)
	if !ok || diff != 1 {
		t.Fatalf("DayDifference(timestamp) = %d, %v; want 1, true", diff, ok)
	}
}

func TestDateKeyIsCalendarLocal(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	at := time.Date(2025, 6, 10, 23, 0, 0, 0, time.UTC).In(tokyo)
	if got := DateKey(at); got != "2025-06-11" {
		t.Fatalf("DateKey = %q, want 2025-06-11", got)
	}
}

func TestCompletedOn(t *testing.T) {
	if !CompletedOn("2025-06-10", today) {
		t.Error("expected completed today")
	}
	if CompletedOn("2025-06-09", today) {
		t.Error("yesterday is not today")
	}
	if CompletedOn("", today) {
		t.Error("empty is never today")
	}
}

func TestElapsedSeconds(t *testing.T) {
	for d, want := range map[time.Duration]float64{
		0:                       1,
		400 * time.Millisecond:  1,
		1600 * time.Millisecond: 2,
		95 * time.Second:        95,
	} {
		if got := ElapsedSeconds(d); got != want {
			t.Errorf("ElapsedSeconds(%v) = %v, want %v", d, got, want)
		}
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want focus.FocusStats
	}{
		{"empty", "", focus.DefaultStats()},
		{"corrupt", "{not json", focus.DefaultStats()},
		{"wrong shape", `[1,2,3]`, focus.DefaultStats()},
		{
			name: "valid",
			raw:  `{"storiesCompleted":4,"minutesFocused":7.5,"xp":400,"level":2,"lastCompletedDate":"2025-06-09","dayStreak":3}`,
			want: focus.FocusStats{StoriesCompleted: 4, MinutesFocused: 7.5, XP: 400, Level: 2, LastCompletedDate: "2025-06-09", DayStreak: 3},
		},
		{
			name: "partial and wrong types",
			raw:  `{"storiesCompleted":"many","xp":200,"level":0,"lastCompletedDate":17,"dayStreak":-4}`,
			want: focus.FocusStats{XP: 200, Level: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Decode(tt.raw)); diff != "" {
				t.Errorf("Decode mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

package notification

import (
	"sync"
	"testing"
	"time"

	"github.com/nao1215/eventapi/pkg/event"
)

// setupEvaluator はテスト用のEvaluatorを生成するヘルパー関数。
// 各テストケースで独立したTrackerを使用するため、テスト間の干渉が発生しない。
func setupEvaluator(t *testing.T) (*Evaluator, *time.Location) {
	t.Helper()

	loc, err := LoadZone(CanonicalZone)
	if err != nil {
		t.Fatalf("タイムゾーンの読み込みに失敗: %v", err)
	}
	return NewEvaluator(NewTracker(), loc), loc
}

// eventAt は開始日時がstartのawareなイベントを生成するヘルパー関数。
func eventAt(id, title string, start time.Time) event.Event {
	return event.Event{ID: id, Title: title, StartTime: event.Aware(start)}
}

// TestEvaluateWindow は通知対象となる時間幅の境界を検証する。
func TestEvaluateWindow(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	testCases := []struct {
		name   string
		offset time.Duration
		want   bool
	}{
		{name: "開始時刻ちょうどは通知対象", offset: 0, want: true},
		{name: "2分後は通知対象", offset: 2 * time.Minute, want: true},
		{name: "300秒直前は通知対象", offset: Window - time.Nanosecond, want: true},
		{name: "300秒後は通知対象外", offset: Window, want: false},
		{name: "1秒前に開始済みは通知対象外", offset: -time.Second, want: false},
		{name: "1時間後は通知対象外", offset: time.Hour, want: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			e, _ := setupEvaluator(t)
			msgs := e.Evaluate([]event.Event{eventAt("id-1", "Standup", now.Add(tc.offset))}, now)

			if got := len(msgs) == 1; got != tc.want {
				t.Errorf("通知 = %v; 期待値 = %v (messages=%v)", got, tc.want, msgs)
			}
			if got := e.tracker.Has("id-1"); got != tc.want {
				t.Errorf("通知済み = %v; 期待値 = %v", got, tc.want)
			}
		})
	}
}

// TestEvaluateIdempotence は同じイベントが2度通知されないことを検証する。
func TestEvaluateIdempotence(t *testing.T) {
	t.Parallel()

	t.Run("2回続けて評価しても通知は1回だけであること", func(t *testing.T) {
		t.Parallel()

		e, _ := setupEvaluator(t)
		now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
		events := []event.Event{eventAt("id-1", "Standup", now.Add(2*time.Minute))}

		first := e.Evaluate(events, now)
		second := e.Evaluate(events, now)

		if len(first) != 1 {
			t.Fatalf("1回目の通知数 = %d; 期待値 = 1", len(first))
		}
		if first[0] != "Event 'Standup' is about to start!" {
			t.Errorf("message = %q; 期待値 = %q", first[0], "Event 'Standup' is about to start!")
		}
		if second == nil || len(second) != 0 {
			t.Errorf("2回目の通知 = %v; 期待値 = 空のスライス", second)
		}
	})

	t.Run("通知対象がなくてもnilではなく空のスライスを返すこと", func(t *testing.T) {
		t.Parallel()

		e, _ := setupEvaluator(t)
		msgs := e.Evaluate(nil, time.Now())
		if msgs == nil {
			t.Error("Evaluate()がnilを返した")
		}
	})

	t.Run("複数イベントは入力順に通知されること", func(t *testing.T) {
		t.Parallel()

		e, _ := setupEvaluator(t)
		now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
		events := []event.Event{
			eventAt("id-b", "B", now.Add(4*time.Minute)),
			eventAt("id-x", "X", now.Add(time.Hour)),
			eventAt("id-a", "A", now.Add(time.Minute)),
		}

		msgs := e.Evaluate(events, now)
		want := []string{"Event 'B' is about to start!", "Event 'A' is about to start!"}
		if len(msgs) != len(want) {
			t.Fatalf("通知数 = %d; 期待値 = %d (%v)", len(msgs), len(want), msgs)
		}
		for i := range want {
			if msgs[i] != want[i] {
				t.Errorf("messages[%d] = %q; 期待値 = %q", i, msgs[i], want[i])
			}
		}
	})

	t.Run("時間幅を逃したイベントは後から通知されないこと", func(t *testing.T) {
		t.Parallel()

		e, _ := setupEvaluator(t)
		start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
		events := []event.Event{eventAt("id-1", "Standup", start)}

		if msgs := e.Evaluate(events, start.Add(-10*time.Minute)); len(msgs) != 0 {
			t.Errorf("10分前の通知 = %v; 期待値 = なし", msgs)
		}
		if msgs := e.Evaluate(events, start.Add(time.Second)); len(msgs) != 0 {
			t.Errorf("開始後の通知 = %v; 期待値 = なし", msgs)
		}
	})
}

// TestEvaluateTimezone はタイムゾーンの正規化を検証する。
func TestEvaluateTimezone(t *testing.T) {
	t.Parallel()

	t.Run("+02:00の日時とnaiveな日時が同じ判定になること", func(t *testing.T) {
		t.Parallel()

		aware, err := event.ParseTimestamp("2024-06-01T14:00:00+02:00")
		if err != nil {
			t.Fatalf("日時の解析に失敗: %v", err)
		}
		naive, err := event.ParseTimestamp("2024-06-01T14:00:00")
		if err != nil {
			t.Fatalf("日時の解析に失敗: %v", err)
		}

		for _, now := range []time.Time{
			time.Date(2024, 6, 1, 11, 57, 0, 0, time.UTC),
			time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
			time.Date(2024, 6, 1, 11, 55, 0, 0, time.UTC),
			time.Date(2024, 6, 1, 12, 0, 1, 0, time.UTC),
		} {
			e, _ := setupEvaluator(t)
			gotAware := e.IsDue(event.Event{ID: "a", Title: "A", StartTime: aware}, now)
			gotNaive := e.IsDue(event.Event{ID: "n", Title: "N", StartTime: naive}, now)
			if gotAware != gotNaive {
				t.Errorf("now=%v: aware = %v, naive = %v; 同じ判定であるべき", now, gotAware, gotNaive)
			}
		}
	})

	t.Run("naiveな日時はBrusselsの時刻として解釈されること", func(t *testing.T) {
		t.Parallel()

		e, loc := setupEvaluator(t)
		naive, _ := event.ParseTimestamp("2024-06-01T14:00:00")
		// Brusselsの13:58はUTCの11:58
		now := time.Date(2024, 6, 1, 13, 58, 0, 0, loc)

		msgs := e.Evaluate([]event.Event{{ID: "n", Title: "Naive", StartTime: naive}}, now)
		if len(msgs) != 1 {
			t.Errorf("通知数 = %d; 期待値 = 1", len(msgs))
		}
	})

	t.Run("他のオフセットの日時はBrusselsに変換して比較されること", func(t *testing.T) {
		t.Parallel()

		e, _ := setupEvaluator(t)
		tokyo, _ := event.ParseTimestamp("2024-06-01T21:03:00+09:00")
		now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

		msgs := e.Evaluate([]event.Event{{ID: "t", Title: "Tokyo", StartTime: tokyo}}, now)
		if len(msgs) != 1 {
			t.Errorf("通知数 = %d; 期待値 = 1", len(msgs))
		}
	})
}

// TestReset はReset後に再通知できることを検証する。
func TestReset(t *testing.T) {
	t.Parallel()

	e, _ := setupEvaluator(t)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	events := []event.Event{eventAt("id-1", "Standup", now.Add(time.Minute))}

	if msgs := e.Evaluate(events, now); len(msgs) != 1 {
		t.Fatalf("1回目の通知数 = %d; 期待値 = 1", len(msgs))
	}

	e.Reset()
	if got := e.Notified(); len(got) != 0 {
		t.Errorf("Reset後のNotified() = %v; 期待値 = 空", got)
	}

	if msgs := e.Evaluate(events, now); len(msgs) != 1 {
		t.Errorf("Reset後の通知数 = %d; 期待値 = 1", len(msgs))
	}
}

// TestEvaluateSkipsZeroStartTime は開始日時のないイベントを通知しないことを検証する。
func TestEvaluateSkipsZeroStartTime(t *testing.T) {
	t.Parallel()

	e, _ := setupEvaluator(t)
	msgs := e.Evaluate([]event.Event{{ID: "broken", Title: "Broken"}}, time.Now())
	if len(msgs) != 0 {
		t.Errorf("通知 = %v; 期待値 = なし", msgs)
	}
	if e.tracker.Has("broken") {
		t.Error("開始日時のないイベントが通知済みになっている")
	}
	if got := e.InvalidCount(); got != 1 {
		t.Errorf("InvalidCount() = %d; 期待値 = 1", got)
	}

	e.Evaluate([]event.Event{{ID: "broken", Title: "Broken"}}, time.Now())
	if got := e.InvalidCount(); got != 2 {
		t.Errorf("2回目のInvalidCount() = %d; 期待値 = 2", got)
	}
}

// TestEvaluateConcurrent は並行に評価しても通知が1回だけであることを検証する。
func TestEvaluateConcurrent(t *testing.T) {
	t.Parallel()

	e, _ := setupEvaluator(t)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	events := []event.Event{eventAt("id-1", "Standup", now.Add(time.Minute))}

	const workers = 32
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			msgs := e.Evaluate(events, now)
			mu.Lock()
			total += len(msgs)
			mu.Unlock()
		}()
	}
	wg.Wait()

	if total != 1 {
		t.Errorf("通知の合計 = %d; 期待値 = 1", total)
	}
}

// TestLoadZone はタイムゾーンの読み込みを検証する。
func TestLoadZone(t *testing.T) {
	t.Parallel()

	t.Run("空文字列はEurope/Brusselsになること", func(t *testing.T) {
		t.Parallel()

		loc, err := LoadZone("")
		if err != nil {
			t.Fatalf("LoadZone()でエラーが発生: %v", err)
		}
		if loc.String() != CanonicalZone {
			t.Errorf("loc = %q; 期待値 = %q", loc.String(), CanonicalZone)
		}
	})

	t.Run("存在しないタイムゾーンはエラーになること", func(t *testing.T) {
		t.Parallel()

		if _, err := LoadZone("Mars/Olympus"); err == nil {
			t.Error("存在しないタイムゾーンでエラーが返らない")
		}
	})
}

package notification

import (
	"log"
	"sort"
	"sync"
)

// Tracker は通知済みのイベントIDを保持する。
// API処理とバックグラウンドの定期確認から並行に利用される。
type Tracker struct {
	// mu はnotifiedを保護する。
	mu sync.Mutex
	// notified は通知済みのイベントID。
	notified map[string]struct{}
}

// NewTracker は空のTrackerを生成する。
func NewTracker() *Tracker {
	return &Tracker{
		notified: make(map[string]struct{}),
	}
}

// MarkIfAbsent はIDが未登録であれば登録してtrueを返す。
// 既に登録済みであればfalseを返す。確認と登録は不可分に行われる。
func (t *Tracker) MarkIfAbsent(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.notified[id]; ok {
		return false
	}
	t.notified[id] = struct{}{}
	return true
}

// Has はIDが通知済みかどうかを返す。
func (t *Tracker) Has(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, ok := t.notified[id]
	return ok
}

// Reset は通知済みの記録をすべて消去する。
func (t *Tracker) Reset() {
	t.mu.Lock()
	t.notified = make(map[string]struct{})
	t.mu.Unlock()

	log.Println("[Notification] 通知済みの記録をリセットしました")
}

// Notified は通知済みのイベントIDをソートして返す。
// 返却値はコピーであり、変更してもTrackerには影響しない。
func (t *Tracker) Notified() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	ids := make([]string, 0, len(t.notified))
	for id := range t.notified {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len は通知済みのイベント数を返す。
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.notified)
}

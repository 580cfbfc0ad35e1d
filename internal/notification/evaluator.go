package notification

import (
	"fmt"
	"log"
	"sync/atomic"
	"time"
	_ "time/tzdata"

	"github.com/nao1215/eventapi/pkg/event"
)

const (
	// Window は通知対象とする開始までの時間幅。
	Window = 5 * time.Minute
	// CanonicalZone は日時の比較に使うタイムゾーン。
	CanonicalZone = "Europe/Brussels"
)

// LoadZone はタイムゾーン名を読み込む。空文字列の場合はCanonicalZoneを使う。
func LoadZone(name string) (*time.Location, error) {
	if name == "" {
		name = CanonicalZone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("タイムゾーン %q の読み込みに失敗: %w", name, err)
	}
	return loc, nil
}

// Evaluator は開始間近のイベントを判定し、通知メッセージを生成する。
type Evaluator struct {
	// tracker は通知済みのイベントIDを保持する。
	tracker *Tracker
	// loc は日時の比較に使うタイムゾーン。
	loc *time.Location
	// trace は判定の詳細をログに出力するかどうか。
	trace bool
	// invalid は開始日時がないため判定できなかったイベントの累計件数。
	invalid atomic.Int64
}

// Option はEvaluatorの設定を変更する。
type Option func(*Evaluator)

// WithTrace は判定ごとの詳細ログの出力を切り替える。
func WithTrace(enabled bool) Option {
	return func(e *Evaluator) {
		e.trace = enabled
	}
}

// NewEvaluator は新しいEvaluatorを生成する。
func NewEvaluator(tracker *Tracker, loc *time.Location, opts ...Option) *Evaluator {
	e := &Evaluator{
		tracker: tracker,
		loc:     loc,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Location は日時の比較に使うタイムゾーンを返す。
func (e *Evaluator) Location() *time.Location {
	return e.loc
}

// Evaluate はeventsのうち新たに通知対象となったイベントを通知済みにし、
// 通知メッセージを入力順に返す。通知対象がなければ空のスライスを返す。
// 同じイベントについてメッセージが返るのはResetまでに1度だけ。
func (e *Evaluator) Evaluate(events []event.Event, now time.Time) []string {
	now = now.In(e.loc)
	if e.trace {
		log.Printf("[Notification] 通知対象を確認します: %s", now.Format("2006-01-02 15:04:05 MST"))
	}

	messages := make([]string, 0)
	for _, ev := range events {
		if ev.StartTime.IsZero() {
			n := e.invalid.Add(1)
			log.Printf("[Notification][ERROR] 保存済みイベントに開始日時がありません。判定から除外します: id=%s（累計 %d 件）", ev.ID, n)
			continue
		}
		if e.tracker.Has(ev.ID) {
			continue
		}
		if !e.IsDue(ev, now) {
			continue
		}
		// 並行する判定のうち登録に成功した1件だけが通知する
		if !e.tracker.MarkIfAbsent(ev.ID) {
			continue
		}

		msg := Message(ev)
		log.Printf("[Notification] %s", msg)
		messages = append(messages, msg)
	}
	return messages
}

// IsDue はイベントの開始がnowから0秒以上Window未満であるかを返す。
// 通知済みかどうかは考慮しない。
func (e *Evaluator) IsDue(ev event.Event, now time.Time) bool {
	start := ev.StartTime.In(e.loc)
	delta := start.Sub(now.In(e.loc))
	if e.trace {
		log.Printf("[Notification] イベント '%s' の開始: %s（残り %.2f 秒）",
			ev.Title, start.Format("2006-01-02 15:04:05 MST"), delta.Seconds())
	}
	return delta >= 0 && delta < Window
}

// InvalidCount は開始日時がないため判定から除外したイベントの累計件数を返す。
// 0以外であれば保存先の内容が壊れている。
func (e *Evaluator) InvalidCount() int64 {
	return e.invalid.Load()
}

// Reset は通知済みの記録を消去し、全イベントを再び通知可能にする。
func (e *Evaluator) Reset() {
	e.tracker.Reset()
}

// Notified は通知済みのイベントIDのコピーを返す。
func (e *Evaluator) Notified() []string {
	return e.tracker.Notified()
}

// Message はイベントの通知メッセージを生成する。
func Message(ev event.Event) string {
	return fmt.Sprintf("Event '%s' is about to start!", ev.Title)
}

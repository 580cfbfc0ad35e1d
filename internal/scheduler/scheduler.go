// Package scheduler は開始間近のイベントを定期的に確認する。
//
// cron形式のスケジュールで全イベントを取得して通知判定を行い、
// 生成された通知をログに出力する。API処理とは独立して動作する。
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/nao1215/eventapi/internal/eventstore"
	"github.com/nao1215/eventapi/internal/notification"
)

// Scheduler は通知判定を定期実行する。
type Scheduler struct {
	// mu はcronを保護する。
	mu sync.Mutex
	// store はイベントの取得元。
	store eventstore.Store
	// evaluator は通知判定を行う。
	evaluator *notification.Evaluator
	// spec はcron形式の実行スケジュール。
	spec string
	// now は現在時刻を返す。テストで差し替える。
	now func() time.Time
	// cron は実行中のcronスケジューラ。停止中はnil。
	cron *cron.Cron
}

// New は新しいSchedulerを生成する。specには "@every 60s" などを指定する。
func New(store eventstore.Store, evaluator *notification.Evaluator, spec string) *Scheduler {
	return &Scheduler{
		store:     store,
		evaluator: evaluator,
		spec:      spec,
		now:       time.Now,
	}
}

// Start は起動直後に1度確認を行い、以後スケジュールに従って確認を繰り返す。
// 前回の確認が終わっていない場合、その回はスキップする。
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		return errors.New("スケジューラは既に起動しています")
	}

	logger := cron.PrintfLogger(log.Default())
	c := cron.New(
		cron.WithLocation(s.evaluator.Location()),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	if _, err := c.AddFunc(s.spec, func() { s.Check(ctx) }); err != nil {
		return fmt.Errorf("スケジュール %q の登録に失敗: %w", s.spec, err)
	}

	log.Printf("[Scheduler] 定期確認を開始します。スケジュール: %s", s.spec)
	s.Check(ctx)
	c.Start()
	s.cron = c
	return nil
}

// Stop は定期確認を停止し、実行中の確認があれば終了を待つ。
func (s *Scheduler) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()

	if c == nil {
		return
	}
	<-c.Stop().Done()
	log.Println("[Scheduler] 定期確認を停止しました")
}

// Check は全イベントの通知判定を1度行い、生成された通知を返す。
func (s *Scheduler) Check(ctx context.Context) []string {
	log.Println("[Scheduler] 開始間近のイベントを確認します")

	events, err := s.store.List(ctx)
	if err != nil {
		log.Printf("[Scheduler] イベント一覧の取得に失敗: %v", err)
		return nil
	}

	messages := s.evaluator.Evaluate(events, s.now())
	if len(messages) == 0 {
		log.Println("[Scheduler] 通知対象のイベントはありません")
		return messages
	}
	log.Printf("[Scheduler] %d件の通知を送出しました", len(messages))
	return messages
}

// イベントAPIサービスのエントリポイント。
// イベントの登録・取得APIを提供し、開始間近のイベントを定期的に確認して通知する。
package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/nao1215/eventapi/internal/config"
	"github.com/nao1215/eventapi/internal/eventapi"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("イベントAPIサービスの起動に失敗: %v", err)
	}
	log.Println("イベントAPIサービスを停止しました")
}

// run はサーバーを起動し、ctxがキャンセルされるまで待つ。
// 戻る前にイベントの保存先を閉じる。
func run(ctx context.Context, cfg config.Config) error {
	server, err := eventapi.NewServer(ctx, cfg)
	if err != nil {
		return fmt.Errorf("イベントAPIサーバーの初期化に失敗: %w", err)
	}
	defer server.Close()

	log.Printf("イベントAPIサービスを起動します: :%s (store=%s, schedule=%s)", cfg.Port, cfg.StoreDriver, cfg.CheckSchedule)
	return server.Run(ctx)
}

// Package config は環境変数からサービスの設定を読み込む。
// カレントディレクトリに .env があれば、環境変数に未設定の値を補う。
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/nao1215/eventapi/internal/eventstore"
	"github.com/nao1215/eventapi/internal/notification"
)

// Config はイベントAPIサービスの設定。
type Config struct {
	// Port はサーバーのリッスンポート。
	Port string
	// StoreDriver はイベントの保存先（memory または sqlite）。
	StoreDriver string
	// CheckSchedule は定期確認のcron形式スケジュール。
	CheckSchedule string
	// Location は日時の比較に使うタイムゾーン。
	Location *time.Location
	// AllowedOrigins はCORSを許可するオリジン。
	AllowedOrigins []string
	// Trace は通知判定の詳細ログを出力するかどうか。
	Trace bool
}

// Load は .env と環境変数から設定を読み込む。
// filesを省略した場合はカレントディレクトリの .env を読む。存在しなくてもエラーにしない。
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf(".envの読み込みに失敗: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv はgetenvで取得した値から設定を組み立てる。
func FromEnv(getenv func(string) string) (Config, error) {
	getEnvOr := func(key, defaultValue string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return defaultValue
	}

	cfg := Config{
		Port:          getEnvOr("PORT", "8080"),
		StoreDriver:   getEnvOr("EVENT_STORE", eventstore.DriverMemory),
		CheckSchedule: getEnvOr("CHECK_SCHEDULE", "@every 60s"),
	}

	switch cfg.StoreDriver {
	case eventstore.DriverMemory, eventstore.DriverSQLite:
	default:
		return Config{}, fmt.Errorf("EVENT_STORE が不正です: %q", cfg.StoreDriver)
	}

	if _, err := cron.ParseStandard(cfg.CheckSchedule); err != nil {
		return Config{}, fmt.Errorf("CHECK_SCHEDULE が不正です: %w", err)
	}

	loc, err := notification.LoadZone(getEnvOr("CANONICAL_ZONE", notification.CanonicalZone))
	if err != nil {
		return Config{}, fmt.Errorf("CANONICAL_ZONE が不正です: %w", err)
	}
	cfg.Location = loc

	for _, o := range strings.Split(getenv("CORS_ALLOWED_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
		}
	}

	if v := getenv("NOTIFY_TRACE"); v != "" {
		trace, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("NOTIFY_TRACE が不正です: %w", err)
		}
		cfg.Trace = trace
	}

	return cfg, nil
}

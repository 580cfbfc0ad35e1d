package config

import (
	"os"
	"path/filepath"
	"testing"
)

// envOf はマップから値を返すgetenvを生成するヘルパー関数。
func envOf(m map[string]string) func(string) string {
	return func(key string) string { return m[key] }
}

// TestFromEnv は環境変数からの設定の組み立てを検証する。
func TestFromEnv(t *testing.T) {
	t.Parallel()

	t.Run("未設定の場合はデフォルト値になること", func(t *testing.T) {
		t.Parallel()

		cfg, err := FromEnv(envOf(nil))
		if err != nil {
			t.Fatalf("FromEnv()でエラーが発生: %v", err)
		}
		if cfg.Port != "8080" {
			t.Errorf("Port = %q, want %q", cfg.Port, "8080")
		}
		if cfg.StoreDriver != "memory" {
			t.Errorf("StoreDriver = %q, want %q", cfg.StoreDriver, "memory")
		}
		if cfg.CheckSchedule != "@every 60s" {
			t.Errorf("CheckSchedule = %q, want %q", cfg.CheckSchedule, "@every 60s")
		}
		if cfg.Location.String() != "Europe/Brussels" {
			t.Errorf("Location = %q, want %q", cfg.Location.String(), "Europe/Brussels")
		}
		if len(cfg.AllowedOrigins) != 0 {
			t.Errorf("AllowedOrigins = %v, want empty", cfg.AllowedOrigins)
		}
		if cfg.Trace {
			t.Error("Trace = true, want false")
		}
	})

	t.Run("設定値が反映されること", func(t *testing.T) {
		t.Parallel()

		cfg, err := FromEnv(envOf(map[string]string{
			"PORT":                 "9000",
			"EVENT_STORE":          "sqlite",
			"CHECK_SCHEDULE":       "*/2 * * * *",
			"CORS_ALLOWED_ORIGINS": "http://localhost:3000, https://example.com,",
			"NOTIFY_TRACE":         "true",
		}))
		if err != nil {
			t.Fatalf("FromEnv()でエラーが発生: %v", err)
		}
		if cfg.Port != "9000" {
			t.Errorf("Port = %q, want %q", cfg.Port, "9000")
		}
		if cfg.StoreDriver != "sqlite" {
			t.Errorf("StoreDriver = %q, want %q", cfg.StoreDriver, "sqlite")
		}
		if cfg.CheckSchedule != "*/2 * * * *" {
			t.Errorf("CheckSchedule = %q, want %q", cfg.CheckSchedule, "*/2 * * * *")
		}
		if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://example.com" {
			t.Errorf("AllowedOrigins = %v, want [http://localhost:3000 https://example.com]", cfg.AllowedOrigins)
		}
		if !cfg.Trace {
			t.Error("Trace = false, want true")
		}
	})

	t.Run("不正な値はエラーになること", func(t *testing.T) {
		t.Parallel()

		testCases := []struct {
			name string
			env  map[string]string
		}{
			{name: "未対応のストア", env: map[string]string{"EVENT_STORE": "postgres"}},
			{name: "不正なスケジュール", env: map[string]string{"CHECK_SCHEDULE": "every minute"}},
			{name: "存在しないタイムゾーン", env: map[string]string{"CANONICAL_ZONE": "Mars/Olympus"}},
			{name: "真偽値でないトレース設定", env: map[string]string{"NOTIFY_TRACE": "maybe"}},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				t.Parallel()

				if _, err := FromEnv(envOf(tc.env)); err == nil {
					t.Error("エラーが返らない")
				}
			})
		}
	})
}

// TestLoad は .env ファイルの読み込みを検証する。
// 環境変数を書き換えるため並列実行しない。
func TestLoad(t *testing.T) {
	t.Run(".envが存在しなくてもエラーにならないこと", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err != nil {
			t.Errorf("Load()でエラーが発生: %v", err)
		}
	})

	t.Run(".envの値が未設定の環境変数を補うこと", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "test.env")
		if err := os.WriteFile(path, []byte("PORT=9123\n"), 0o600); err != nil {
			t.Fatalf(".envの作成に失敗: %v", err)
		}
		// t.Setenvで終了時に元の値へ戻し、.envが読まれるよう未設定にする
		t.Setenv("PORT", "")
		os.Unsetenv("PORT")

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load()でエラーが発生: %v", err)
		}
		if cfg.Port != "9123" {
			t.Errorf("Port = %q, want %q", cfg.Port, "9123")
		}
	})
}

package eventapi

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/eventapi/internal/config"
	"github.com/nao1215/eventapi/internal/eventstore"
	"github.com/nao1215/eventapi/internal/notification"
	"github.com/nao1215/eventapi/internal/scheduler"
	"github.com/nao1215/eventapi/pkg/event"
	"github.com/nao1215/eventapi/pkg/middleware"
)

// Server はイベントAPIサービスのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// store はイベントの保存先。
	store eventstore.Store
	// evaluator は通知判定を行う。スケジューラと共有する。
	evaluator *notification.Evaluator
	// scheduler は通知判定を定期実行する。
	scheduler *scheduler.Scheduler
	// now は現在時刻を返す。テストで差し替える。
	now func() time.Time
}

// NewServer は新しいイベントAPIサーバーを生成する。
// 設定に従ってイベントの保存先を初期化する。
func NewServer(ctx context.Context, cfg config.Config) (*Server, error) {
	store, err := eventstore.Open(ctx, cfg.StoreDriver)
	if err != nil {
		return nil, fmt.Errorf("イベントストアの初期化に失敗: %w", err)
	}

	evaluator := notification.NewEvaluator(
		notification.NewTracker(),
		cfg.Location,
		notification.WithTrace(cfg.Trace),
	)

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORS(cfg.AllowedOrigins))

	s := &Server{
		router:    router,
		port:      cfg.Port,
		store:     store,
		evaluator: evaluator,
		scheduler: scheduler.New(store, evaluator, cfg.CheckSchedule),
		now:       time.Now,
	}
	s.setupRoutes()

	return s, nil
}

// Run は定期確認を開始してHTTPサーバーを起動する。
// ctxがキャンセルされるとHTTPサーバーと定期確認を停止する。
func (s *Server) Run(ctx context.Context) error {
	if err := s.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("スケジューラの起動に失敗: %w", err)
	}
	defer s.scheduler.Stop()

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%s", s.port),
		Handler:      s.router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("HTTPサーバーの起動に失敗: %w", err)
	case <-ctx.Done():
	}

	log.Println("[EventAPI] サーバーを停止します")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTPサーバーの停止に失敗: %w", err)
	}
	return nil
}

// Close はイベントの保存先を閉じる。
func (s *Server) Close() error {
	return s.store.Close()
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	// 稼働確認
	s.router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Event API is running"})
	})

	events := s.router.Group("/events")
	{
		// イベント登録
		events.POST("", s.handleCreate())
		// イベント一覧取得（通知判定を含む）
		events.GET("", s.handleList())
		// イベント詳細取得（通知判定を含む）
		events.GET("/:id", s.handleGetByID())
	}

	// 通知済み記録の確認・リセット（運用・デバッグ用）
	notifications := s.router.Group("/notifications")
	{
		notifications.GET("/notified", s.handleListNotified())
		notifications.POST("/reset", s.handleReset())
	}

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "eventapi"})
	})
}

// createEventRequest はイベント登録リクエストのJSON構造。
type createEventRequest struct {
	// ID はイベントの識別子。省略時は採番する。
	ID string `json:"id"`
	// Title はイベントのタイトル。
	Title string `json:"title" binding:"required"`
	// Description はイベントの説明。
	Description *string `json:"description"`
	// StartTime はイベントの開始日時（ISO 8601、オフセット省略可）。
	StartTime *event.Timestamp `json:"start_time" binding:"required"`
}

// listEventsResponse はイベント一覧のJSONレスポンス構造。
type listEventsResponse struct {
	// Events は登録順の全イベント。
	Events []event.Event `json:"events"`
	// Notifications は今回新たに発生した通知メッセージ。
	Notifications []string `json:"notifications"`
}

// getEventResponse はイベント詳細のJSONレスポンス構造。
type getEventResponse struct {
	// Event は対象のイベント。
	Event event.Event `json:"event"`
	// Notifications は今回新たに発生した通知メッセージ。
	Notifications []string `json:"notifications"`
}

// handleCreate はイベントを登録するハンドラ。
func (s *Server) handleCreate() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createEventRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		}

		saved, err := s.store.Add(c.Request.Context(), event.Event{
			ID:          req.ID,
			Title:       req.Title,
			Description: req.Description,
			StartTime:   *req.StartTime,
		})
		switch {
		case errors.Is(err, eventstore.ErrInvalidEvent):
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		case errors.Is(err, eventstore.ErrDuplicateID):
			c.JSON(http.StatusConflict, gin.H{"error": "同じIDのイベントが既に存在します"})
			return
		case err != nil:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "イベントの登録に失敗しました"})
			log.Printf("イベント登録エラー: %v", err)
			return
		}

		c.JSON(http.StatusCreated, saved)
	}
}

// handleList は全イベントと新たに発生した通知を返すハンドラ。
func (s *Server) handleList() gin.HandlerFunc {
	return func(c *gin.Context) {
		events, err := s.store.List(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "イベント一覧の取得に失敗しました"})
			log.Printf("イベント一覧取得エラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, listEventsResponse{
			Events:        events,
			Notifications: s.evaluator.Evaluate(events, s.now()),
		})
	}
}

// handleGetByID は指定されたイベントと新たに発生した通知を返すハンドラ。
func (s *Server) handleGetByID() gin.HandlerFunc {
	return func(c *gin.Context) {
		ev, err := s.store.Get(c.Request.Context(), c.Param("id"))
		if errors.Is(err, eventstore.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "イベントが見つかりません"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "イベントの取得に失敗しました"})
			log.Printf("イベント取得エラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, getEventResponse{
			Event:         ev,
			Notifications: s.evaluator.Evaluate([]event.Event{ev}, s.now()),
		})
	}
}

// handleListNotified は通知済みのイベントIDを返すハンドラ。
func (s *Server) handleListNotified() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"notified": s.evaluator.Notified()})
	}
}

// handleReset は通知済みの記録を消去するハンドラ。
func (s *Server) handleReset() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.evaluator.Reset()
		c.JSON(http.StatusOK, gin.H{"message": "通知済みの記録をリセットしました"})
	}
}

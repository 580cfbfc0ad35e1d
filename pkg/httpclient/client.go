package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/nao1215/eventapi/pkg/event"
)

// ErrNotFound は対象のリソースが存在しない（404）ことを表す。
var ErrNotFound = errors.New("リソースが見つかりません")

// StatusError はイベントAPIが2xx以外を返したことを表す。
type StatusError struct {
	// StatusCode はHTTPステータスコード。
	StatusCode int
	// Body はレスポンスボディ。
	Body string
}

// Error はエラーメッセージを返す。
func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTPエラー: status=%d, body=%s", e.StatusCode, e.Body)
}

// Is は404をErrNotFoundとして扱う。
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Client はイベントAPIのHTTPクライアント。
type Client struct {
	// httpClient は内部で使用するHTTPクライアント。
	httpClient *http.Client
	// baseURL は接続先のベースURL。
	baseURL string
}

// New は新しいHTTPクライアントを生成する。
// baseURLには接続先のベースURL（例: "http://localhost:8080"）を指定する。
func New(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: baseURL,
	}
}

// CreateEventRequest はイベント登録リクエスト。
type CreateEventRequest struct {
	// ID はイベントの識別子。省略時はサーバーが採番する。
	ID string `json:"id,omitempty"`
	// Title はイベントのタイトル。
	Title string `json:"title"`
	// Description はイベントの説明。
	Description *string `json:"description,omitempty"`
	// StartTime はISO 8601形式の開始日時。オフセットは省略できる。
	StartTime string `json:"start_time"`
}

// EventsResponse はイベント一覧のレスポンス。
type EventsResponse struct {
	// Events は登録順の全イベント。
	Events []event.Event `json:"events"`
	// Notifications は今回新たに発生した通知メッセージ。
	Notifications []string `json:"notifications"`
}

// EventResponse はイベント詳細のレスポンス。
type EventResponse struct {
	// Event は対象のイベント。
	Event event.Event `json:"event"`
	// Notifications は今回新たに発生した通知メッセージ。
	Notifications []string `json:"notifications"`
}

// CreateEvent はイベントを登録し、保存されたイベントを返す。
func (c *Client) CreateEvent(ctx context.Context, req CreateEventRequest) (event.Event, error) {
	var ev event.Event
	if err := c.PostJSON(ctx, "/events", req, &ev); err != nil {
		return event.Event{}, fmt.Errorf("イベントの登録に失敗: %w", err)
	}
	return ev, nil
}

// ListEvents は全イベントと新たに発生した通知を取得する。
func (c *Client) ListEvents(ctx context.Context) (EventsResponse, error) {
	var resp EventsResponse
	if err := c.GetJSON(ctx, "/events", &resp); err != nil {
		return EventsResponse{}, fmt.Errorf("イベント一覧の取得に失敗: %w", err)
	}
	return resp, nil
}

// GetEvent は指定されたイベントと新たに発生した通知を取得する。
// 存在しない場合のエラーはerrors.Is(err, ErrNotFound)で判定できる。
func (c *Client) GetEvent(ctx context.Context, id string) (EventResponse, error) {
	var resp EventResponse
	if err := c.GetJSON(ctx, "/events/"+url.PathEscape(id), &resp); err != nil {
		return EventResponse{}, fmt.Errorf("イベントの取得に失敗: %w", err)
	}
	return resp, nil
}

// Notified は通知済みのイベントIDを取得する。
func (c *Client) Notified(ctx context.Context) ([]string, error) {
	var resp struct {
		Notified []string `json:"notified"`
	}
	if err := c.GetJSON(ctx, "/notifications/notified", &resp); err != nil {
		return nil, fmt.Errorf("通知済みIDの取得に失敗: %w", err)
	}
	return resp.Notified, nil
}

// ResetNotifications は通知済みの記録を消去する。
func (c *Client) ResetNotifications(ctx context.Context) error {
	if err := c.PostJSON(ctx, "/notifications/reset", nil, nil); err != nil {
		return fmt.Errorf("通知済み記録のリセットに失敗: %w", err)
	}
	return nil
}

// PostJSON は指定パスにJSONボディでPOSTリクエストを送信する。
// レスポンスボディをresultにデシリアライズする。
func (c *Client) PostJSON(ctx context.Context, path string, body any, result any) error {
	return c.doJSON(ctx, http.MethodPost, path, body, result)
}

// GetJSON は指定パスにGETリクエストを送信する。
// レスポンスボディをresultにデシリアライズする。
func (c *Client) GetJSON(ctx context.Context, path string, result any) error {
	return c.doJSON(ctx, http.MethodGet, path, nil, result)
}

// doJSON はJSON形式のHTTPリクエストを実行する共通処理。
func (c *Client) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("リクエストボディのシリアライズに失敗: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("HTTPリクエストの作成に失敗: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTPリクエストの送信に失敗: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("レスポンスボディのデシリアライズに失敗: %w", err)
		}
	}
	return nil
}

package eventstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nao1215/eventapi/pkg/event"
)

var (
	// ErrNotFound は指定されたIDのイベントが存在しないことを表す。
	ErrNotFound = errors.New("イベントが見つかりません")
	// ErrDuplicateID は指定されたIDのイベントが既に存在することを表す。
	ErrDuplicateID = errors.New("イベントIDが重複しています")
	// ErrInvalidEvent はイベントの必須項目が欠けていることを表す。
	ErrInvalidEvent = errors.New("イベントの内容が不正です")
)

const (
	// DriverMemory はMemoryStoreを表すドライバ名。
	DriverMemory = "memory"
	// DriverSQLite はSQLiteStoreを表すドライバ名。
	DriverSQLite = "sqlite"
)

// Store はイベントの保存先。登録順を保持する。
type Store interface {
	// Add はイベントを追記し、保存されたイベントを返す。
	// IDが空の場合は新しいIDを採番する。
	Add(ctx context.Context, e event.Event) (event.Event, error)
	// List は全イベントを登録順に返す。返却値は呼び出し側で変更してよい。
	List(ctx context.Context) ([]event.Event, error)
	// Get はIDに一致するイベントを返す。存在しない場合はErrNotFoundを返す。
	Get(ctx context.Context, id string) (event.Event, error)
	// Close は保存先を閉じる。
	Close() error
}

// Open はドライバ名に対応するStoreを生成する。
func Open(ctx context.Context, driver string) (Store, error) {
	switch driver {
	case DriverMemory:
		return NewMemoryStore(), nil
	case DriverSQLite:
		s, err := OpenSQLite(ctx, ":memory:")
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("未対応のストアです: %q", driver)
	}
}

// prepare は保存前のイベントを検証し、必要であればIDを採番する。
func prepare(e event.Event) (event.Event, error) {
	e.ID = strings.TrimSpace(e.ID)
	if e.ID == "" {
		e.ID = event.NewID()
	}
	if e.Title == "" {
		return event.Event{}, fmt.Errorf("%w: titleは必須です", ErrInvalidEvent)
	}
	if e.StartTime.IsZero() {
		return event.Event{}, fmt.Errorf("%w: start_timeは必須です", ErrInvalidEvent)
	}
	return e, nil
}

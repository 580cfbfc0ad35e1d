package eventstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nao1215/eventapi/pkg/event"
	_ "modernc.org/sqlite"
)

// SQLiteStore はSQLiteでイベントを保持するStore。
type SQLiteStore struct {
	// db はSQLiteデータベース接続。
	db *sql.DB
}

// OpenSQLite はSQLiteStoreを生成し、スキーマを適用する。
// dsnに ":memory:" を指定した場合、内容はCloseとともに失われる。
func OpenSQLite(ctx context.Context, dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}
	// インメモリDBは接続ごとに別のDBになるため接続を1本に固定する
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("データベースへの疎通確認に失敗: %w", err)
	}

	if err := initSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("スキーマ初期化に失敗: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Add はイベントを追記する。
func (s *SQLiteStore) Add(ctx context.Context, e event.Event) (event.Event, error) {
	e, err := prepare(e)
	if err != nil {
		return event.Event{}, err
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO events (id, title, description, start_time)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`,
		e.ID, e.Title, toNullString(e.Description), e.StartTime.String(),
	)
	if err != nil {
		return event.Event{}, fmt.Errorf("イベントの保存に失敗: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return event.Event{}, fmt.Errorf("保存件数の取得に失敗: %w", err)
	}
	if n == 0 {
		return event.Event{}, fmt.Errorf("%w: %s", ErrDuplicateID, e.ID)
	}
	return e, nil
}

// List は全イベントを登録順に返す。
func (s *SQLiteStore) List(ctx context.Context) ([]event.Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, description, start_time FROM events ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("イベント一覧の取得に失敗: %w", err)
	}
	defer func() { _ = rows.Close() }()

	events := make([]event.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("イベント一覧の読み込みに失敗: %w", err)
	}
	return events, nil
}

// Get はIDに一致するイベントを返す。
func (s *SQLiteStore) Get(ctx context.Context, id string) (event.Event, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, description, start_time FROM events WHERE id = ?`, id)

	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return event.Event{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return event.Event{}, err
	}
	return e, nil
}

// Close はデータベース接続を閉じる。
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// scanner は*sql.Rowと*sql.Rowsの共通インターフェース。
type scanner interface {
	Scan(dest ...any) error
}

// scanEvent は1行をイベントに変換する。
func scanEvent(sc scanner) (event.Event, error) {
	var (
		e           event.Event
		description sql.NullString
		startTime   string
	)
	if err := sc.Scan(&e.ID, &e.Title, &description, &startTime); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return event.Event{}, err
		}
		return event.Event{}, fmt.Errorf("イベントの読み込みに失敗: %w", err)
	}

	ts, err := event.ParseTimestamp(startTime)
	if err != nil {
		return event.Event{}, fmt.Errorf("保存済みの開始日時が不正です: %w", err)
	}
	e.StartTime = ts
	if description.Valid {
		d := description.String
		e.Description = &d
	}
	return e, nil
}

// toNullString は省略可能な文字列をSQLのNULL許容文字列に変換する。
func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

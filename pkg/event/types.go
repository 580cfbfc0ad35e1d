// Package event はイベントAPIで扱うイベントのデータモデルを提供する。
//
// イベントは登録時にIDが割り当てられ、以後変更されない。開始日時は
// タイムゾーンのオフセット付き・なしのどちらでも受け付け、受け取った
// 形式のまま返却する。
package event

import "time"

// Event はクライアントが登録するイベントを表す。
// 登録後は不変であり、削除操作も存在しない。
type Event struct {
	// ID はイベントの一意識別子（UUID）。
	ID string `json:"id"`
	// Title はイベントのタイトル。空文字列は許可しない。
	Title string `json:"title"`
	// Description はイベントの説明。省略時はnull。
	Description *string `json:"description"`
	// StartTime はイベントの開始日時。
	StartTime Timestamp `json:"start_time"`
}

// Timestamp はオフセットの有無を保持する日時。
// オフセットなしで与えられた日時（naive）は壁時計の値だけを持ち、
// 解釈するタイムゾーンは利用側が決める。
type Timestamp struct {
	// t は日時の値。naiveの場合は壁時計の値をUTCとして保持する。
	t time.Time
	// naive はオフセットなしで与えられたかどうか。
	naive bool
}

// Aware はオフセット付きの日時からTimestampを生成する。
func Aware(t time.Time) Timestamp {
	return Timestamp{t: t}
}

// Naive は壁時計の値だけを取り出してオフセットなしのTimestampを生成する。
// tのタイムゾーンは無視される。
func Naive(t time.Time) Timestamp {
	y, m, d := t.Date()
	hh, mm, ss := t.Clock()
	return Timestamp{
		t:     time.Date(y, m, d, hh, mm, ss, t.Nanosecond(), time.UTC),
		naive: true,
	}
}

// IsZero は日時が未設定かどうかを返す。
func (ts Timestamp) IsZero() bool {
	return ts.t.IsZero()
}

// IsNaive はオフセットなしで与えられた日時かどうかを返す。
func (ts Timestamp) IsNaive() bool {
	return ts.naive
}

// In は日時をlocのタイムゾーンで表した時刻を返す。
// naiveな日時は変換せず、壁時計の値をそのままlocの時刻として解釈する。
// 夏時間終了で同じ壁時計が2回現れる場合は1回目（切り替え前）を返す。
func (ts Timestamp) In(loc *time.Location) time.Time {
	if !ts.naive {
		return ts.t.In(loc)
	}
	y, m, d := ts.t.Date()
	hh, mm, ss := ts.t.Clock()
	t := time.Date(y, m, d, hh, mm, ss, ts.t.Nanosecond(), loc)
	if earlier := t.Add(-time.Hour); sameWallClock(earlier, ts.t) {
		return earlier
	}
	return t
}

// sameWallClock はaとbの日付と時刻（タイムゾーンを除く）が一致するかを返す。
func sameWallClock(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd &&
		a.Hour() == b.Hour() && a.Minute() == b.Minute() && a.Second() == b.Second()
}

// Equal は2つのTimestampが同じ形式かつ同じ値かどうかを返す。
func (ts Timestamp) Equal(other Timestamp) bool {
	return ts.naive == other.naive && ts.t.Equal(other.t)
}

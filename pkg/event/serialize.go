package event

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidTimestamp は日時として解釈できない値を受け取ったことを表す。
var ErrInvalidTimestamp = errors.New("日時の形式が不正です")

const (
	// naiveLayout はオフセットなし日時の出力形式。
	naiveLayout = "2006-01-02T15:04:05.999999999"
)

// awareLayouts はオフセット付き日時として受け付ける形式。
// 秒の小数部はレイアウトに含めなくても解析時に受け付けられる。
var awareLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04Z07:00",
}

// minUnix と maxUnix はUnix秒として受け付ける範囲（UTCで0001年から9999年まで）。
var (
	minUnix = float64(time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC).Unix())
	maxUnix = float64(time.Date(10000, time.January, 1, 0, 0, 0, 0, time.UTC).Unix())
)

// naiveLayouts はオフセットなし日時として受け付ける形式。
var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// NewID は新しいイベントIDを生成する。
func NewID() string {
	return uuid.New().String()
}

// New は新しいイベントを生成する。IDはUUIDで自動採番される。
func New(title string, description *string, start Timestamp) Event {
	return Event{
		ID:          NewID(),
		Title:       title,
		Description: description,
		StartTime:   start,
	}
}

// ParseTimestamp はISO 8601形式の文字列をTimestampに変換する。
// オフセットがなければnaive、あればawareとして扱う。
// 日付と時刻の区切りには "T" と空白のどちらも使用できる。
func ParseTimestamp(s string) (Timestamp, error) {
	v := strings.TrimSpace(s)
	if len(v) > 10 && v[10] == ' ' {
		v = v[:10] + "T" + v[11:]
	}

	for _, layout := range awareLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return Aware(t), nil
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return Naive(t), nil
		}
	}
	return Timestamp{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
}

// String は受け取った形式に合わせて日時を文字列化する。
// naiveはオフセットを付けず、awareはRFC 3339形式で元のオフセットを保つ。
func (ts Timestamp) String() string {
	if ts.naive {
		return ts.t.Format(naiveLayout)
	}
	return ts.t.Format(time.RFC3339Nano)
}

// MarshalJSON はTimestampをJSON文字列に変換する。
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(ts.String())
}

// UnmarshalJSON はJSON文字列またはUnix秒の数値をTimestampに変換する。
// nullは値を変更しない。
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidTimestamp, err)
		}
		parsed, err := ParseTimestamp(s)
		if err != nil {
			return err
		}
		*ts = parsed
		return nil
	}

	var seconds float64
	if err := json.Unmarshal(data, &seconds); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidTimestamp, string(data))
	}
	if math.IsNaN(seconds) || seconds < minUnix || seconds >= maxUnix {
		return fmt.Errorf("%w: 範囲外のUnix秒です: %s", ErrInvalidTimestamp, string(data))
	}
	whole, frac := math.Modf(seconds)
	*ts = Aware(time.Unix(int64(whole), int64(frac*1e9)).UTC())
	return nil
}

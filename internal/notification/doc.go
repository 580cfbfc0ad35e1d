// Package notification はイベント開始前の通知を判定する。
//
// 開始日時が現在から5分以内（0秒以上300秒未満）に入ったイベントについて、
// イベントごとに1度だけ通知メッセージを生成する。通知済みのイベントIDは
// Trackerが保持し、Resetするまで再通知しない。日時の比較はすべて
// Europe/Brussels（夏時間対応）で行う。
package notification

// Package eventstore はイベントの保存先を提供する。
//
// 登録順を保持したままイベントを追記し、一覧取得とID指定の取得を行う。
// 更新・削除の操作は持たない。実装は次の2つで、どちらもプロセス終了と
// ともに内容が失われる。
//
//   - MemoryStore: スライスとIDインデックスによるインメモリ実装
//   - SQLiteStore: インメモリSQLiteによる実装（gooseでスキーマを管理）
package eventstore

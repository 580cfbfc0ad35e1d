// Package eventapi はイベントAPIサービスの内部実装を提供する。
//
// イベントの登録・一覧取得・ID指定の取得をHTTPで公開する。一覧と詳細の
// 取得時には開始間近のイベントの通知判定も行い、新たに発生した通知を
// レスポンスに含める。バックグラウンドではSchedulerが同じ判定を
// 定期的に実行する。
package eventapi

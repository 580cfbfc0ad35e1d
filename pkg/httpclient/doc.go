// Package httpclient はイベントAPIを呼び出すHTTPクライアントを提供する。
//
// イベントの登録・取得と、通知済み記録の確認・リセットを型付きの
// メソッドで呼び出せる。運用スクリプトや結合テストから使用する。
package httpclient

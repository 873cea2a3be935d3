package model

import "time"

// Session はユーザーのログインセッションを表す。
// 永続ストアが正であり、セッションキャッシュはプロセス内ミラーに過ぎない。
type Session struct {
	ID        string
	UserID    string
	CreatedAt time.Time
}

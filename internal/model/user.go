// Package model はドメインモデルを定義する。
package model

// Icon はユーザーのアイコン画像ファイルへの参照を表す。
type Icon struct {
	FileID   string
	FileName string
}

// User はプロフィール表示用のユーザーを表す。
// オフィス名とアイコンファイル名をJOIN済みのスナップショット。
type User struct {
	ID         string
	Name       string
	Icon       Icon
	OfficeName string
}

// SearchedUser は検索結果1件を表す。
// 取得時点のレコードのスナップショットであり、フルレコードはキャッシュしない
// （キャッシュ対象はIDと件数のみ）。
type SearchedUser struct {
	ID           string
	Name         string
	Kana         string
	EntryDate    string
	OfficeID     string
	IconFileID   string
	OfficeName   string
	IconFileName string
}

// UserForFilter はランダムサンプリング用の拡張ユーザーを表す。
// 部署名とスキル名の集合を含む。
type UserForFilter struct {
	ID             string
	Name           string
	IconFileName   string
	OfficeName     string
	DepartmentName string
	SkillNames     []string
}

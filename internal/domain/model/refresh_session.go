package model

import "time"

// RefreshSessionはrefresh token 1つ分のセッション。
// ローテーション時は行ごと削除して作り直す（token値の更新はしない）。
type RefreshSession struct {
	ID     string `gorm:"type:uuid;primaryKey" json:"id"`
	UserID string `gorm:"type:uuid;not null;index" json:"user_id"`
	User   *User  `gorm:"constraint:OnDelete:CASCADE" json:"-"`

	// refresh tokenのsha256（平文はcookieにだけ載る）
	TokenHash   string    `gorm:"not null;uniqueIndex" json:"-"`
	UA          string    `gorm:"column:ua;type:varchar(200)" json:"ua"`
	IP          string    `gorm:"column:ip;type:varchar(45)" json:"ip"`
	Fingerprint string    `gorm:"type:varchar(200);not null" json:"-"`
	ExpiresAt   time.Time `gorm:"not null;index" json:"expires_at"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
}

// nowがexpires_atを過ぎていれば期限切れ
func (s *RefreshSession) IsExpiredAt(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

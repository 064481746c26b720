package model

import "time"

// Userは登録済みユーザー
type User struct {
	ID       string `gorm:"type:uuid;primaryKey" json:"id"`
	UserName string `gorm:"column:user_name;uniqueIndex;not null" json:"user_name"` // 大文字小文字は区別する
	// bcryptハッシュ（平文は保存しない）
	PasswordHash string `gorm:"column:password_hash;not null" json:"-"`
	// 登録時のvisitor id
	Fingerprint      string    `gorm:"type:varchar(200);not null;index:idx_users_fingerprint_registered" json:"-"`
	RegistrationDate time.Time `gorm:"not null;index:idx_users_fingerprint_registered" json:"registration_date"`
}

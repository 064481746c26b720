package model

import "time"

// 認証操作の種類
type AuditAction string

const (
	AuditActionRegister AuditAction = "REGISTER"
	AuditActionLogin    AuditAction = "LOGIN"
	AuditActionRefresh  AuditAction = "REFRESH"
	AuditActionLogout   AuditAction = "LOGOUT"
)

// 結果
type AuditOutcome string

const (
	AuditOutcomeSuccess  AuditOutcome = "SUCCESS"
	AuditOutcomeRejected AuditOutcome = "REJECTED"
	AuditOutcomeError    AuditOutcome = "ERROR"
)

// 監査ログ（認証操作ログ）。
// 「誰が」「どこから」「何をして」「どうなったか」を残す。
type AuditLog struct {
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	//分かる場合のみ（ログイン失敗などは空）
	UserID *string `gorm:"type:uuid;index" json:"user_id"`

	Action  AuditAction  `gorm:"type:varchar(20);not null;index" json:"action"`
	Outcome AuditOutcome `gorm:"type:varchar(20);not null" json:"outcome"`

	//拒否理由（FORGED_IDENTITYなど）
	Reason string `gorm:"type:varchar(50)" json:"reason"`

	IP        string `gorm:"type:varchar(45)" json:"ip"`
	UserAgent string `gorm:"type:varchar(200)" json:"user_agent"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

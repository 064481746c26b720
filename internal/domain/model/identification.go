package model

import (
	"errors"
	"time"
)

// 識別サービスに失敗（到達不可・不正レスポンス・timestamp欠落）
var ErrIdentityProvider = errors.New("identity provider error")

// Identificationは外部の識別サービスが返した結果。保存はしない。
type Identification struct {
	VisitorID    string
	Confidence   float64 // 0..1
	IdentifiedAt time.Time
}

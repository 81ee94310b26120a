package jobs

import (
	"time"

	"github.com/yourusername/travel-packages/internal/catalog"
)

// TypeCatalogImport はカタログインポートタスクの種別です。
const TypeCatalogImport = "catalog:import"

// Status はジョブの実行状態を表します。
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "done"
	StatusFailed    Status = "error"
)

// ProgressInfo は進捗の補足情報を表します。
type ProgressInfo struct {
	Percent int    `json:"percent"`
	Stage   string `json:"stage,omitempty"`
}

// ErrorInfo はジョブ失敗時のエラー情報を保持します。
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Record はインポートジョブの現在状態を表します。
type Record struct {
	JobID     string       `json:"jobId"`
	Status    Status       `json:"status"`
	Progress  ProgressInfo `json:"progress"`
	Total     int          `json:"total"`
	Imported  int          `json:"imported"`
	Error     *ErrorInfo   `json:"error,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

// ImportPayload はインポートタスクのペイロードです。
// パッケージの ID は投入時に確定しているため、再試行しても同じドキュメントに書き込まれます。
type ImportPayload struct {
	JobID    string            `json:"jobId"`
	Packages []catalog.Package `json:"packages"`
}

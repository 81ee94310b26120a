// Package jobs はカタログインポートの非同期ジョブ管理機能を提供します。
//
// パッケージの登録 API は公開しないため、カタログは catalogctl から投入される
// インポートジョブでのみ更新されます。ジョブの状態は Redis に保存します。
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/yourusername/travel-packages/internal/catalog"
	"github.com/yourusername/travel-packages/internal/config"
	"github.com/yourusername/travel-packages/internal/logger"
)

const (
	queueName   = "catalog"
	taskTimeout = 10 * time.Minute
)

// recordStore はジョブ状態の保存先です。本番は Store（Redis）を使います。
type recordStore interface {
	Get(ctx context.Context, jobID string) (*Record, error)
	Upsert(ctx context.Context, record *Record) error
	UpdateProgress(ctx context.Context, jobID string, progress ProgressInfo, imported int) error
	MarkDone(ctx context.Context, jobID string, imported int) error
	MarkFailed(ctx context.Context, jobID string, errInfo *ErrorInfo) error
}

// Manager はインポートジョブの投入と状態参照を担います。
type Manager struct {
	client *asynq.Client
	store  recordStore
	logger *logger.Logger
}

// NewManager は Manager を初期化します。
func NewManager(cfg *config.Config, store recordStore, log *logger.Logger) (*Manager, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if store == nil {
		return nil, errors.New("store is nil")
	}
	opt, err := asynq.ParseRedisURI(cfg.QueueRedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Manager{
		client: asynq.NewClient(opt),
		store:  store,
		logger: log,
	}, nil
}

// EnqueueImport はパッケージ一覧をインポートジョブとして投入し、ジョブ ID を返します。
func (m *Manager) EnqueueImport(ctx context.Context, pkgs []catalog.Package) (string, error) {
	if len(pkgs) == 0 {
		return "", errors.New("no packages to import")
	}
	catalog.AssignIDs(pkgs)

	payload := &ImportPayload{
		JobID:    uuid.NewString(),
		Packages: pkgs,
	}
	record := &Record{
		JobID:  payload.JobID,
		Status: StatusQueued,
		Total:  len(pkgs),
		Progress: ProgressInfo{
			Percent: 0,
			Stage:   "queued",
		},
	}
	if err := m.store.Upsert(ctx, record); err != nil {
		return "", err
	}

	task, err := newImportTask(payload)
	if err != nil {
		return "", err
	}
	info, err := m.client.EnqueueContext(ctx, task)
	if err != nil {
		return "", err
	}

	m.logger.Info().
		Str("job_id", payload.JobID).
		Str("task_id", info.ID).
		Int("packages", len(pkgs)).
		Msg("catalog import enqueued")
	return payload.JobID, nil
}

// GetRecord はジョブ情報を取得します。
func (m *Manager) GetRecord(ctx context.Context, jobID string) (*Record, error) {
	return m.store.Get(ctx, jobID)
}

// Close はクライアントを閉じます。
func (m *Manager) Close() error {
	return m.client.Close()
}

func newImportTask(payload *ImportPayload) (*asynq.Task, error) {
	if payload == nil || payload.JobID == "" {
		return nil, errors.New("payload.JobID is required")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeCatalogImport, body,
		asynq.Queue(queueName),
		asynq.MaxRetry(1),
		asynq.Timeout(taskTimeout),
	), nil
}

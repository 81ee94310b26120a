package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/yourusername/travel-packages/internal/catalog"
	"github.com/yourusername/travel-packages/internal/config"
	"github.com/yourusername/travel-packages/internal/logger"
)

// importBatchSize ごとに書き込み、進捗を更新します。
const importBatchSize = 50

// Worker は Asynq サーバーでインポートタスクを処理します。
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger *logger.Logger
}

// NewWorker は Worker を初期化します。
func NewWorker(cfg *config.Config, store recordStore, importer catalog.Importer, log *logger.Logger) (*Worker, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if store == nil {
		return nil, errors.New("store is nil")
	}
	if importer == nil {
		return nil, errors.New("importer is nil")
	}
	if log == nil {
		log = logger.Nop()
	}
	opt, err := asynq.ParseRedisURI(cfg.QueueRedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	concurrency := cfg.WorkerConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName: 1,
		},
		Logger: asynqLogger{log},
	})

	mux := asynq.NewServeMux()
	mux.Handle(TypeCatalogImport, &importHandler{store: store, importer: importer, logger: log})

	return &Worker{server: server, mux: mux, logger: log}, nil
}

// Start は Asynq サーバーをバックグラウンドで起動します。
func (w *Worker) Start() {
	go func() {
		if err := w.server.Run(w.mux); err != nil && !errors.Is(err, asynq.ErrServerClosed) {
			w.logger.Error().Err(err).Msg("asynq server stopped with error")
		}
	}()
}

// Shutdown は処理中のタスクを待ってサーバーを停止します。
func (w *Worker) Shutdown() {
	w.server.Shutdown()
}

type importHandler struct {
	store    recordStore
	importer catalog.Importer
	logger   *logger.Logger
}

func (h *importHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload ImportPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode import payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.JobID == "" {
		return fmt.Errorf("missing jobId in payload: %w", asynq.SkipRetry)
	}

	log := h.logger.WithStr("job_id", payload.JobID)
	total := len(payload.Packages)

	if err := h.markRunning(ctx, payload.JobID, total); err != nil {
		return err
	}

	imported := 0
	for start := 0; start < total; start += importBatchSize {
		end := min(start+importBatchSize, total)
		if err := h.importer.UpsertPackages(ctx, payload.Packages[start:end]); err != nil {
			return h.failJob(ctx, payload.JobID, err)
		}
		imported = end

		progress := ProgressInfo{Percent: imported * 100 / total, Stage: "import"}
		if err := h.store.UpdateProgress(ctx, payload.JobID, progress, imported); err != nil {
			log.Warn().Err(err).Msg("failed to update import progress")
		}
	}

	if err := h.store.MarkDone(ctx, payload.JobID, imported); err != nil {
		return err
	}
	log.Info().Int("imported", imported).Msg("catalog import finished")
	return nil
}

// markRunning は実行中に更新します。レコードが期限切れで消えていれば作り直します。
func (h *importHandler) markRunning(ctx context.Context, jobID string, total int) error {
	err := h.store.UpdateProgress(ctx, jobID, ProgressInfo{Percent: 0, Stage: "import"}, 0)
	if !errors.Is(err, ErrJobNotFound) {
		return err
	}
	return h.store.Upsert(ctx, &Record{
		JobID:    jobID,
		Status:   StatusRunning,
		Total:    total,
		Progress: ProgressInfo{Percent: 0, Stage: "import"},
	})
}

func (h *importHandler) failJob(ctx context.Context, jobID string, cause error) error {
	h.logger.Error().Err(cause).Str("job_id", jobID).Msg("catalog import failed")
	if err := h.store.MarkFailed(ctx, jobID, &ErrorInfo{
		Code:    "IMPORT_FAILED",
		Message: cause.Error(),
	}); err != nil {
		h.logger.Warn().Err(err).Str("job_id", jobID).Msg("failed to record import failure")
	}
	// Asynq に再試行させる（書き込みは ID 単位の置き換えなので重複しない）
	return cause
}

// asynqLogger は asynq.Logger を zerolog に流すアダプターです。
type asynqLogger struct {
	l *logger.Logger
}

func (a asynqLogger) Debug(args ...interface{}) { a.l.Debug().Msg(fmt.Sprint(args...)) }
func (a asynqLogger) Info(args ...interface{})  { a.l.Info().Msg(fmt.Sprint(args...)) }
func (a asynqLogger) Warn(args ...interface{})  { a.l.Warn().Msg(fmt.Sprint(args...)) }
func (a asynqLogger) Error(args ...interface{}) { a.l.Error().Msg(fmt.Sprint(args...)) }
func (a asynqLogger) Fatal(args ...interface{}) { a.l.Fatal().Msg(fmt.Sprint(args...)) }

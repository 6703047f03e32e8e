// Package worker выгружает заказы во внешнюю таблицу в фоне. Задачи
// пишутся в sync_queue, так что перезапуск процесса их не теряет.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"lavka/internal/database"
	"lavka/internal/domain"
	"lavka/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	TaskOrderCreated = "order_created"
	TaskOrderStatus  = "order_status"
)

// orderTaskPayload хранится в SyncTask.Payload как JSON.
type orderTaskPayload struct {
	OrderID int64         `json:"order_id"`
	Order   *models.Order `json:"order,omitempty"`
	Status  string        `json:"status,omitempty"`
}

// SheetsWorker разбирает очередь sync_queue и применяет задачи к таблице.
type SheetsWorker struct {
	db          *database.DB
	sheets      domain.SheetsWriter
	redis       *redis.Client
	retryPolicy RetryPolicy

	queue         chan models.SyncTask
	redisQueueKey string
	deadLetterKey string
	pollInterval  time.Duration
	batchSize     int

	// nextAttempt держит backoff в памяти: sync_queue хранит только
	// счётчик попыток. Читается и пишется только из цикла Start.
	nextAttempt map[int64]time.Time

	logger *zerolog.Logger
}

func NewSheetsWorker(db *database.DB, sheets domain.SheetsWriter, redisClient *redis.Client, retry RetryPolicy, logger *zerolog.Logger) *SheetsWorker {
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 5
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = 2 * time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = 1 * time.Minute
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &SheetsWorker{
		db:            db,
		sheets:        sheets,
		redis:         redisClient,
		retryPolicy:   retry,
		queue:         make(chan models.SyncTask, models.WorkerQueueSize),
		redisQueueKey: "sheets:orders:queue",
		deadLetterKey: "sheets:orders:deadletter",
		pollInterval:  2 * time.Second,
		batchSize:     20,
		nextAttempt:   make(map[int64]time.Time),
		logger:        logger,
	}
}

// EnqueueTask сохраняет задачу в БД и ставит её в redis либо в локальную
// очередь. Реализует domain.SyncWorker.
func (w *SheetsWorker) EnqueueTask(ctx context.Context, taskType string, orderID int64, order *models.Order, status string) error {
	if taskType == "" {
		return errors.New("task type is required")
	}
	if orderID == 0 && (order == nil || order.ID == 0) {
		return errors.New("order id is required")
	}

	payload := orderTaskPayload{OrderID: orderID, Order: order, Status: status}
	if payload.OrderID == 0 {
		payload.OrderID = order.ID
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	syncTask := models.SyncTask{
		TaskType: taskType,
		OrderID:  payload.OrderID,
		Payload:  string(payloadBytes),
		Status:   "pending",
	}

	if err := w.db.CreateSyncTask(ctx, &syncTask); err != nil {
		return fmt.Errorf("persist sync task: %w", err)
	}

	// Сначала redis, при сбое задачу подберёт локальная очередь или опрос БД.
	if w.redis != nil {
		if err := w.pushRedis(ctx, syncTask); err != nil {
			w.logger.Warn().Err(err).Int64("task_id", syncTask.ID).Msg("redis push failed, falling back to memory queue")
		} else {
			return nil
		}
	}

	select {
	case w.queue <- syncTask:
	default:
		w.logger.Warn().Int64("task_id", syncTask.ID).Msg("in-memory queue full, task left for DB polling")
	}

	return nil
}

// Start крутит основной цикл до отмены контекста.
func (w *SheetsWorker) Start(ctx context.Context) {
	w.logger.Info().Msg("Sheets worker started")
	defer w.logger.Info().Msg("Sheets worker stopped")

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if t, ok := w.tryLocalQueue(); ok {
			w.processTask(ctx, &t)
			continue
		}

		if t, ok := w.tryRedis(ctx); ok {
			w.processTask(ctx, &t)
			continue
		}

		tasks, err := w.db.GetPendingSyncTasks(ctx, w.batchSize)
		if err != nil {
			w.logger.Error().Err(err).Msg("fetch pending sync tasks failed")
			w.sleep(ctx, w.pollInterval)
			continue
		}

		processed := 0
		for i := range tasks {
			if !w.dueNow(tasks[i].ID) {
				continue
			}
			w.processTask(ctx, &tasks[i])
			processed++
		}
		if processed == 0 {
			w.sleep(ctx, w.pollInterval)
		}
	}
}

func (w *SheetsWorker) sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

func (w *SheetsWorker) dueNow(taskID int64) bool {
	at, ok := w.nextAttempt[taskID]
	return !ok || !time.Now().Before(at)
}

func (w *SheetsWorker) tryLocalQueue() (models.SyncTask, bool) {
	select {
	case t := <-w.queue:
		return t, true
	default:
		return models.SyncTask{}, false
	}
}

func (w *SheetsWorker) tryRedis(ctx context.Context) (models.SyncTask, bool) {
	if w.redis == nil {
		return models.SyncTask{}, false
	}
	res, err := w.redis.BRPop(ctx, time.Second, w.redisQueueKey).Result()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, redis.Nil) {
			return models.SyncTask{}, false
		}
		w.logger.Error().Err(err).Msg("redis BRPOP error")
		return models.SyncTask{}, false
	}
	if len(res) != 2 {
		return models.SyncTask{}, false
	}
	var task models.SyncTask
	if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
		w.logger.Error().Err(err).Msg("decode redis task failed")
		return models.SyncTask{}, false
	}
	return task, true
}

func (w *SheetsWorker) processTask(ctx context.Context, task *models.SyncTask) {
	payload, err := w.decodePayload(task.Payload)
	if err != nil {
		w.failTask(ctx, task, fmt.Errorf("decode payload: %w", err))
		return
	}

	if err := w.handleSheetTask(ctx, task.TaskType, payload); err != nil {
		w.retryOrFail(ctx, task, err)
		return
	}

	delete(w.nextAttempt, task.ID)
	if err := w.db.UpdateSyncTaskStatus(ctx, task.ID, "completed", ""); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("mark sync task completed failed")
	}
}

func (w *SheetsWorker) handleSheetTask(ctx context.Context, taskType string, payload orderTaskPayload) error {
	switch taskType {
	case TaskOrderCreated:
		if payload.Order == nil {
			return errors.New("order payload missing")
		}
		return w.sheets.AppendOrder(ctx, payload.Order)
	case TaskOrderStatus:
		if payload.OrderID == 0 || payload.Status == "" {
			return errors.New("order id or status missing")
		}
		return w.sheets.UpdateOrderStatus(ctx, payload.OrderID, payload.Status)
	default:
		return fmt.Errorf("unknown task type: %s", taskType)
	}
}

func (w *SheetsWorker) retryOrFail(ctx context.Context, task *models.SyncTask, cause error) {
	attempt := task.Attempts + 1
	if attempt >= w.retryPolicy.MaxRetries {
		w.failTask(ctx, task, cause)
		return
	}

	w.nextAttempt[task.ID] = time.Now().Add(w.retryPolicy.NextDelay(attempt))
	if err := w.db.UpdateSyncTaskStatus(ctx, task.ID, "retry", cause.Error()); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("mark sync task retry failed")
	}
}

func (w *SheetsWorker) failTask(ctx context.Context, task *models.SyncTask, cause error) {
	delete(w.nextAttempt, task.ID)
	if err := w.db.UpdateSyncTaskStatus(ctx, task.ID, "failed", cause.Error()); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("mark sync task failed failed")
	}
	w.pushDeadLetter(ctx, task)
}

func (w *SheetsWorker) decodePayload(raw string) (orderTaskPayload, error) {
	var payload orderTaskPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return payload, err
	}
	return payload, nil
}

func (w *SheetsWorker) pushRedis(ctx context.Context, task models.SyncTask) error {
	data, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return w.redis.LPush(ctx, w.redisQueueKey, data).Err()
}

func (w *SheetsWorker) pushDeadLetter(ctx context.Context, task *models.SyncTask) {
	if w.redis == nil {
		return
	}
	data, err := json.Marshal(task)
	if err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("encode deadletter task failed")
		return
	}
	if err := w.redis.LPush(ctx, w.deadLetterKey, data).Err(); err != nil {
		w.logger.Error().Err(err).Int64("task_id", task.ID).Msg("deadletter push failed")
	}
}

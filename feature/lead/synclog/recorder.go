package synclog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"lead-sync/core/storage"
	"lead-sync/feature/lead/models"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Recorder persists synchronization failures without ever raising to its
// caller. Entries the database will not take are emitted to the zap
// fallback sink and, when an archive is configured, to object storage.
type Recorder struct {
	db       *gorm.DB
	policy   AccessPolicy
	fallback *zap.Logger
	archive  storage.Client
	bucket   string
}

// NewRecorder creates a recorder persisting to db under the given policy.
// A nil db degrades every entry to the fallback sink.
func NewRecorder(db *gorm.DB, policy AccessPolicy, fallback *zap.Logger) *Recorder {
	if policy == nil {
		policy = OpenPolicy{}
	}
	return &Recorder{
		db:       db,
		policy:   policy,
		fallback: fallback,
	}
}

// WithArchive adds a best-effort dead-letter archive for entries that could
// not be persisted.
func (r *Recorder) WithArchive(client storage.Client, bucket string) *Recorder {
	r.archive = client
	r.bucket = bucket
	return r
}

// Record persists the entries. It never returns an error and never panics;
// any internal failure degrades to the fallback sink.
func (r *Recorder) Record(ctx context.Context, entries ...Entry) {
	defer func() {
		if rec := recover(); rec != nil {
			r.fallback.Error("failure recorder panicked",
				zap.Any("panic", rec),
				zap.Int("entries", len(entries)))
		}
	}()

	if len(entries) == 0 {
		return
	}

	now := time.Now()
	for i := range entries {
		if entries[i].At.IsZero() {
			entries[i].At = now
		}
	}

	if r.db == nil || !r.policy.CanCreate() {
		r.emit(ctx, entries)
		return
	}

	rows := make([]models.SyncErrorLog, len(entries))
	for i, e := range entries {
		rows[i] = r.redact(e)
	}

	if err := r.db.WithContext(ctx).Create(&rows).Error; err != nil {
		r.fallback.Warn("sync error log persistence failed", zap.Error(err))
		r.emit(ctx, entries)
	}
}

// redact maps an entry to a row, dropping fields the policy forbids.
func (r *Recorder) redact(e Entry) models.SyncErrorLog {
	row := models.SyncErrorLog{
		ErrorKind: string(e.ErrorKind),
		CreatedAt: e.At,
	}
	if r.policy.CanWrite("integration") {
		row.Integration = e.Integration
	}
	if r.policy.CanWrite("record_id") {
		row.RecordID = e.RecordID
	}
	if r.policy.CanWrite("message") {
		row.Message = e.Message
	}
	if r.policy.CanWrite("status_code") {
		row.StatusCode = e.StatusCode
	}
	if r.policy.CanWrite("raw_response") {
		row.RawResponse = e.RawResponse
	}
	return row
}

// emit writes entries to the diagnostic fallback sink and, if configured,
// to the dead-letter archive. Both paths are best-effort.
func (r *Recorder) emit(ctx context.Context, entries []Entry) {
	for _, e := range entries {
		r.fallback.Error("lead sync failure",
			zap.String("integration", e.Integration),
			zap.String("record_id", e.RecordID),
			zap.String("error_kind", string(e.ErrorKind)),
			zap.Int("status_code", e.StatusCode),
			zap.String("message", e.Message),
			zap.String("raw_response", e.RawResponse),
			zap.Time("at", e.At))
	}

	if r.archive == nil {
		return
	}

	payload, err := json.Marshal(entries)
	if err != nil {
		return
	}

	name := fmt.Sprintf("deadletter/%s-%s.json",
		time.Now().UTC().Format("20060102T150405"), uuid.NewString())
	_, err = r.archive.PutObject(ctx, r.bucket, name,
		bytes.NewReader(payload), int64(len(payload)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		r.fallback.Debug("dead-letter archive write failed", zap.Error(err))
	}
}

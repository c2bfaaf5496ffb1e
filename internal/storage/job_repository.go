package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"ytprompt/internal/models"
)

// ErrJobNotQueued はジョブがキュー待ち状態でないことを示す
var ErrJobNotQueued = errors.New("job is not queued")

const jobColumns = `id, type, url, video_id, output_format, status, error_kind, message,
	file_id, retry_count, created_at, started_at, completed_at`

// JobRepository は処理ジョブのデータアクセス層
type JobRepository struct {
	db *DB
}

// NewJobRepository は新しいJobRepositoryを作成
func NewJobRepository(db *DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create は新しいジョブを作成
func (r *JobRepository) Create(ctx context.Context, job *models.ProcessingJob) error {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	if job.Type == "" {
		job.Type = models.JobTypeProcess
	}
	if job.Status == "" {
		job.Status = models.JobStatusQueued
	}
	if job.OutputFormat == "" {
		job.OutputFormat = models.FormatText
	}
	job.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO processing_jobs (`+jobColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.Type, job.URL, job.VideoID, job.OutputFormat, job.Status,
		job.ErrorKind, job.Message, job.FileID, job.RetryCount,
		job.CreatedAt, nullTime(job.StartedAt), nullTime(job.CompletedAt),
	)
	return err
}

// GetByID はIDでジョブを取得
func (r *JobRepository) GetByID(ctx context.Context, id string) (*models.ProcessingJob, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM processing_jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return job, nil
}

// GetNextQueued は次に処理すべきキュー済みジョブを取得（登録順）
func (r *JobRepository) GetNextQueued(ctx context.Context) (*models.ProcessingJob, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+jobColumns+` FROM processing_jobs
		WHERE status = ?
		ORDER BY rowid
		LIMIT 1`, models.JobStatusQueued)
	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return job, nil
}

// Start はキュー済みジョブを実行中にする
func (r *JobRepository) Start(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE processing_jobs SET status = ?, started_at = ?
		WHERE id = ? AND status = ?`,
		models.JobStatusRunning, time.Now(), id, models.JobStatusQueued)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrJobNotQueued
	}
	return nil
}

// Complete はジョブを完了状態にする
func (r *JobRepository) Complete(ctx context.Context, id, videoID, fileID, message string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE processing_jobs
		SET status = ?, video_id = ?, file_id = ?, message = ?, error_kind = '', completed_at = ?
		WHERE id = ?`,
		models.JobStatusCompleted, videoID, fileID, message, time.Now(), id)
	return err
}

// Fail はジョブを失敗状態にする
func (r *JobRepository) Fail(ctx context.Context, id, videoID, kind, message string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE processing_jobs
		SET status = ?, video_id = ?, error_kind = ?, message = ?, completed_at = ?
		WHERE id = ?`,
		models.JobStatusFailed, videoID, kind, message, time.Now(), id)
	return err
}

// Retry はジョブを再試行キューに戻す
func (r *JobRepository) Retry(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE processing_jobs
		SET status = ?, retry_count = retry_count + 1, started_at = NULL
		WHERE id = ?`,
		models.JobStatusQueued, id)
	return err
}

// Requeue は中断されたジョブを再試行回数を増やさずにキューへ戻す
func (r *JobRepository) Requeue(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE processing_jobs SET status = ?, started_at = NULL
		WHERE id = ? AND status = ?`,
		models.JobStatusQueued, id, models.JobStatusRunning)
	return err
}

// ListRecent は最近のジョブ一覧を取得
func (r *JobRepository) ListRecent(ctx context.Context, limit int) ([]models.ProcessingJob, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+jobColumns+` FROM processing_jobs
		ORDER BY rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	jobs := []models.ProcessingJob{}
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

// CountByStatus はステータスごとのジョブ数を取得
func (r *JobRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM processing_jobs GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// Delete はジョブを削除
func (r *JobRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM processing_jobs WHERE id = ?`, id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*models.ProcessingJob, error) {
	var (
		job       models.ProcessingJob
		started   sql.NullTime
		completed sql.NullTime
	)
	err := row.Scan(
		&job.ID, &job.Type, &job.URL, &job.VideoID, &job.OutputFormat, &job.Status,
		&job.ErrorKind, &job.Message, &job.FileID, &job.RetryCount,
		&job.CreatedAt, &started, &completed,
	)
	if err != nil {
		return nil, err
	}
	if started.Valid {
		job.StartedAt = &started.Time
	}
	if completed.Valid {
		job.CompletedAt = &completed.Time
	}
	return &job, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

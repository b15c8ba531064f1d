package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rahul3002/Time-Travel-Booking/internal/entity"
)

type capsuleRepository struct {
	db *sql.DB
}

func NewCapsuleRepository(db *sql.DB) CapsuleRepository {
	return &capsuleRepository{db: db}
}

const capsuleColumns = `
	id, user_id, message, file_name, file_size, file_mime,
	priority, target_delivery_date, actual_delivery_date,
	status, created_at, updated_at
`

func scanCapsule(row interface{ Scan(...interface{}) error }) (*entity.Capsule, error) {
	var (
		capsule   entity.Capsule
		fileName  sql.NullString
		fileSize  sql.NullInt64
		fileMime  sql.NullString
		delivered sql.NullTime
	)

	err := row.Scan(
		&capsule.ID,
		&capsule.UserID,
		&capsule.Message,
		&fileName,
		&fileSize,
		&fileMime,
		&capsule.Priority,
		&capsule.TargetDeliveryDate,
		&delivered,
		&capsule.Status,
		&capsule.CreatedAt,
		&capsule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if fileName.Valid {
		capsule.FileMetadata = &entity.FileMetadata{
			Filename: fileName.String,
			Size:     fileSize.Int64,
			MimeType: fileMime.String,
		}
	}
	if delivered.Valid {
		capsule.ActualDeliveryDate = &delivered.Time
	}

	return &capsule, nil
}

func fileColumns(capsule *entity.Capsule) (sql.NullString, sql.NullInt64, sql.NullString) {
	if capsule.FileMetadata == nil {
		return sql.NullString{}, sql.NullInt64{}, sql.NullString{}
	}
	return sql.NullString{String: capsule.FileMetadata.Filename, Valid: true},
		sql.NullInt64{Int64: capsule.FileMetadata.Size, Valid: true},
		sql.NullString{String: capsule.FileMetadata.MimeType, Valid: true}
}

// Create inserts a new capsule, assigning its ID and timestamps.
func (r *capsuleRepository) Create(ctx context.Context, capsule *entity.Capsule) error {
	if capsule.ID == "" {
		capsule.ID = uuid.New().String()
	}

	now := time.Now()
	if capsule.CreatedAt.IsZero() {
		capsule.CreatedAt = now
	}
	capsule.UpdatedAt = now

	fileName, fileSize, fileMime := fileColumns(capsule)

	query := `
		INSERT INTO capsules (
			id, user_id, message, file_name, file_size, file_mime,
			priority, target_delivery_date, actual_delivery_date,
			status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.ExecContext(ctx, query,
		capsule.ID,
		capsule.UserID,
		capsule.Message,
		fileName,
		fileSize,
		fileMime,
		capsule.Priority,
		capsule.TargetDeliveryDate,
		nil,
		capsule.Status,
		capsule.CreatedAt,
		capsule.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create capsule: %w", err)
	}

	return nil
}

// GetByID retrieves a capsule by its ID
func (r *capsuleRepository) GetByID(ctx context.Context, id string) (*entity.Capsule, error) {
	query := `SELECT ` + capsuleColumns + ` FROM capsules WHERE id = $1`

	capsule, err := scanCapsule(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, entity.ErrCapsuleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get capsule: %w", err)
	}

	return capsule, nil
}

// GetByUserID retrieves all capsules of a user ordered by delivery date
func (r *capsuleRepository) GetByUserID(ctx context.Context, userID string) ([]*entity.Capsule, error) {
	query := `
		SELECT ` + capsuleColumns + `
		FROM capsules
		WHERE user_id = $1
		ORDER BY target_delivery_date ASC
	`

	return r.queryCapsules(ctx, query, userID)
}

// FindConflict returns the capsule occupying the user's calendar day, or nil
// when the day is free. When several scheduled capsules land on the same day
// the occupant is the one with the highest priority, earliest created_at.
func (r *capsuleRepository) FindConflict(ctx context.Context, userID string, day time.Time) (*entity.Capsule, error) {
	dayStart, dayEnd := entity.DayWindow(day)

	query := `
		SELECT ` + capsuleColumns + `
		FROM capsules
		WHERE user_id = $1
		  AND status = $2
		  AND target_delivery_date BETWEEN $3 AND $4
		ORDER BY priority DESC, created_at ASC
		LIMIT 1
	`

	capsule, err := scanCapsule(r.db.QueryRowContext(ctx, query,
		userID, entity.CapsuleStatusScheduled, dayStart, dayEnd))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find conflicting capsule: %w", err)
	}

	return capsule, nil
}

// GetScheduledInWindow retrieves scheduled capsules due between from and to,
// ordered by priority descending then created_at ascending.
func (r *capsuleRepository) GetScheduledInWindow(ctx context.Context, from, to time.Time) ([]*entity.Capsule, error) {
	query := `
		SELECT ` + capsuleColumns + `
		FROM capsules
		WHERE status = $1
		  AND target_delivery_date BETWEEN $2 AND $3
		ORDER BY priority DESC, created_at ASC
	`

	return r.queryCapsules(ctx, query, entity.CapsuleStatusScheduled, from, to)
}

// GetScheduledBefore retrieves scheduled capsules whose delivery date passed
// without them being delivered.
func (r *capsuleRepository) GetScheduledBefore(ctx context.Context, before time.Time) ([]*entity.Capsule, error) {
	query := `
		SELECT ` + capsuleColumns + `
		FROM capsules
		WHERE status = $1
		  AND target_delivery_date < $2
		ORDER BY target_delivery_date ASC
	`

	return r.queryCapsules(ctx, query, entity.CapsuleStatusScheduled, before)
}

// UpdateTargetDate moves a scheduled capsule to a new delivery day.
func (r *capsuleRepository) UpdateTargetDate(ctx context.Context, id string, target time.Time) error {
	query := `
		UPDATE capsules
		SET target_delivery_date = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`

	result, err := r.db.ExecContext(ctx, query, target, time.Now(), id, entity.CapsuleStatusScheduled)
	if err != nil {
		return fmt.Errorf("failed to update capsule target date: %w", err)
	}

	return checkAffected(result)
}

// MarkDelivered transitions a scheduled capsule to delivered and stamps the
// actual delivery time. The transition is terminal.
func (r *capsuleRepository) MarkDelivered(ctx context.Context, id string, deliveredAt time.Time) error {
	query := `
		UPDATE capsules
		SET status = $1, actual_delivery_date = $2, updated_at = $3
		WHERE id = $4 AND status = $5
	`

	result, err := r.db.ExecContext(ctx, query,
		entity.CapsuleStatusDelivered, deliveredAt, time.Now(), id, entity.CapsuleStatusScheduled)
	if err != nil {
		return fmt.Errorf("failed to mark capsule delivered: %w", err)
	}

	return checkAffected(result)
}

// MarkExpired transitions a scheduled capsule to expired. Terminal.
func (r *capsuleRepository) MarkExpired(ctx context.Context, id string) error {
	query := `
		UPDATE capsules
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`

	result, err := r.db.ExecContext(ctx, query,
		entity.CapsuleStatusExpired, time.Now(), id, entity.CapsuleStatusScheduled)
	if err != nil {
		return fmt.Errorf("failed to mark capsule expired: %w", err)
	}

	return checkAffected(result)
}

// Update rewrites all mutable capsule fields.
func (r *capsuleRepository) Update(ctx context.Context, capsule *entity.Capsule) error {
	fileName, fileSize, fileMime := fileColumns(capsule)

	var delivered sql.NullTime
	if capsule.ActualDeliveryDate != nil {
		delivered = sql.NullTime{Time: *capsule.ActualDeliveryDate, Valid: true}
	}

	query := `
		UPDATE capsules
		SET message = $1, file_name = $2, file_size = $3, file_mime = $4,
		    priority = $5, target_delivery_date = $6, actual_delivery_date = $7,
		    status = $8, updated_at = $9
		WHERE id = $10
	`

	result, err := r.db.ExecContext(ctx, query,
		capsule.Message,
		fileName,
		fileSize,
		fileMime,
		capsule.Priority,
		capsule.TargetDeliveryDate,
		delivered,
		capsule.Status,
		time.Now(),
		capsule.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update capsule: %w", err)
	}

	capsule.UpdatedAt = time.Now()
	return checkAffected(result)
}

// GetByStatus retrieves all capsules with a specific status
func (r *capsuleRepository) GetByStatus(ctx context.Context, status entity.CapsuleStatus) ([]*entity.Capsule, error) {
	query := `
		SELECT ` + capsuleColumns + `
		FROM capsules
		WHERE status = $1
		ORDER BY created_at DESC
	`

	return r.queryCapsules(ctx, query, status)
}

func (r *capsuleRepository) GetRecent(ctx context.Context, limit int) ([]*entity.Capsule, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT ` + capsuleColumns + `
		FROM capsules
		ORDER BY created_at DESC
		LIMIT $1
	`

	return r.queryCapsules(ctx, query, limit)
}

func (r *capsuleRepository) queryCapsules(ctx context.Context, query string, args ...interface{}) ([]*entity.Capsule, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query capsules: %w", err)
	}
	defer rows.Close()

	var capsules []*entity.Capsule
	for rows.Next() {
		capsule, err := scanCapsule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan capsule: %w", err)
		}
		capsules = append(capsules, capsule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating capsules: %w", err)
	}

	return capsules, nil
}

func checkAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entity.ErrCapsuleNotFound
	}
	return nil
}

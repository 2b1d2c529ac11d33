package sqlite

import (
	"database/sql"
	"fmt"

	"kiosk/internal/dto"
	"kiosk/internal/model"
)

// ImpactRepository implements repository.ImpactRepository for SQLite.
type ImpactRepository struct {
	db *DB
}

// NewImpactRepository creates a new SQLite impact repository.
func NewImpactRepository(db *DB) *ImpactRepository {
	return &ImpactRepository{db: db}
}

const impactColumns = `id, session_id, filename, attention_count, dwell_seconds, timestamp, filepath, thumbnail_path, filesize`

// Insert adds a new impact record to the database.
func (r *ImpactRepository) Insert(impact *model.Impact) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`
		INSERT INTO impacts (session_id, filename, attention_count, dwell_seconds, timestamp, filepath, thumbnail_path, filesize)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, impact.SessionID, impact.Filename, impact.AttentionCount, impact.DwellSeconds,
		impact.Timestamp, impact.FilePath, impact.ThumbnailPath, impact.FileSize)
	if err != nil {
		return 0, fmt.Errorf("failed to insert impact: %w", err)
	}

	return result.LastInsertId()
}

// GetByID retrieves an impact by its ID. It returns nil when absent.
func (r *ImpactRepository) GetByID(id int64) (*model.Impact, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	row := r.db.Conn().QueryRow(`SELECT `+impactColumns+` FROM impacts WHERE id = ?`, id)
	return scanImpact(row)
}

// GetByFilename retrieves an impact by its evidence filename. It returns nil when absent.
func (r *ImpactRepository) GetByFilename(filename string) (*model.Impact, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	row := r.db.Conn().QueryRow(`SELECT `+impactColumns+` FROM impacts WHERE filename = ?`, filename)
	return scanImpact(row)
}

// GetAll retrieves impacts matching filter, newest first.
func (r *ImpactRepository) GetAll(filter *dto.ImpactFilters) ([]model.Impact, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	query := `SELECT ` + impactColumns + ` FROM impacts WHERE 1=1`
	where, args := buildWhere(filter)
	query += where + " ORDER BY timestamp DESC, id DESC"

	if filter != nil && filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)

		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := r.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query impacts: %w", err)
	}
	defer rows.Close()

	var impacts []model.Impact
	for rows.Next() {
		impact, err := scanImpact(rows)
		if err != nil {
			return nil, err
		}
		impacts = append(impacts, *impact)
	}

	return impacts, rows.Err()
}

// GetTotalCount returns the number of impacts matching filter, ignoring pagination.
func (r *ImpactRepository) GetTotalCount(filter *dto.ImpactFilters) (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	where, args := buildWhere(filter)

	var count int
	if err := r.db.Conn().QueryRow(`SELECT COUNT(*) FROM impacts WHERE 1=1`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count impacts: %w", err)
	}
	return count, nil
}

// GetStats returns totals and a per-day breakdown.
func (r *ImpactRepository) GetStats() (*model.ImpactStats, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	stats := &model.ImpactStats{PerDay: make(map[string]int)}

	err := r.db.Conn().QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(attention_count), 0), COALESCE(SUM(filesize), 0), COALESCE(AVG(dwell_seconds), 0)
		FROM impacts
	`).Scan(&stats.TotalImpacts, &stats.TotalAttention, &stats.TotalSizeBytes, &stats.AverageDwell)
	if err != nil {
		return nil, fmt.Errorf("failed to query impact totals: %w", err)
	}

	rows, err := r.db.Conn().Query(`SELECT DATE(timestamp), COUNT(*) FROM impacts GROUP BY DATE(timestamp)`)
	if err != nil {
		return nil, fmt.Errorf("failed to query impacts per day: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var day string
		var count int
		if err := rows.Scan(&day, &count); err != nil {
			return nil, fmt.Errorf("failed to scan day: %w", err)
		}
		stats.PerDay[day] = count
	}

	return stats, rows.Err()
}

// DeleteByFilename removes an impact by its evidence filename.
func (r *ImpactRepository) DeleteByFilename(filename string) error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM impacts WHERE filename = ?`, filename); err != nil {
		return fmt.Errorf("failed to delete impact: %w", err)
	}
	return nil
}

// DeleteAll removes all impacts and their detections.
func (r *ImpactRepository) DeleteAll() error {
	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM detections`); err != nil {
		return fmt.Errorf("failed to delete detections: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM impacts`); err != nil {
		return fmt.Errorf("failed to delete impacts: %w", err)
	}
	return tx.Commit()
}

func buildWhere(filter *dto.ImpactFilters) (string, []interface{}) {
	if filter == nil {
		return "", nil
	}

	where := ""
	args := []interface{}{}

	if !filter.DateAfter.IsZero() {
		where += " AND DATE(timestamp) >= DATE(?)"
		args = append(args, filter.DateAfter.Format("2006-01-02"))
	}

	if !filter.DateBefore.IsZero() {
		where += " AND DATE(timestamp) <= DATE(?)"
		args = append(args, filter.DateBefore.Format("2006-01-02"))
	}

	if filter.MinCount > 0 {
		where += " AND attention_count >= ?"
		args = append(args, filter.MinCount)
	}

	return where, args
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanImpact(row rowScanner) (*model.Impact, error) {
	var impact model.Impact
	err := row.Scan(&impact.ID, &impact.SessionID, &impact.Filename, &impact.AttentionCount,
		&impact.DwellSeconds, &impact.Timestamp, &impact.FilePath, &impact.ThumbnailPath, &impact.FileSize)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan impact: %w", err)
	}
	return &impact, nil
}

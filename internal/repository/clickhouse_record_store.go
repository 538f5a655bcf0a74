package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"SentiPulse/internal/domain/models"
	"SentiPulse/internal/domain/repository"
)

// ClickHouseRecordStore implements RecordStore for ClickHouse.
type ClickHouseRecordStore struct {
	db              *sql.DB
	recordsTable    string
	predictionTable string
}

// NewClickHouseRecordStore creates ClickHouse record storage.
func NewClickHouseRecordStore(db *sql.DB, recordsTable, predictionTable string) repository.RecordStore {
	return &ClickHouseRecordStore{
		db:              db,
		recordsTable:    recordsTable,
		predictionTable: predictionTable,
	}
}

func (s *ClickHouseRecordStore) Init(ctx context.Context) error {
	return nil // Schema init in pkg
}

func (s *ClickHouseRecordStore) Store(ctx context.Context, r *models.SentimentRecord) error {
	return s.StoreBatch(ctx, []*models.SentimentRecord{r})
}

func (s *ClickHouseRecordStore) StoreBatch(ctx context.Context, recs []*models.SentimentRecord) error {
	if len(recs) == 0 {
		return nil
	}
	// Batch insert using VALUES multi-row to reduce round-trips.
	const chunkSize = 2000
	for start := 0; start < len(recs); start += chunkSize {
		end := start + chunkSize
		if end > len(recs) {
			end = len(recs)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*9)
		for _, r := range recs[start:end] {
			// Synthetic records are advisory only and never persisted.
			if r == nil || r.Synthetic || r.ID == "" {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				r.ID,
				r.Source,
				r.TextFingerprint,
				r.Score.Positive,
				r.Score.Negative,
				r.Score.Neutral,
				r.Dominant,
				r.Confidence,
				r.CreatedAt.UTC(),
			)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (id, source, text_fingerprint, positive, negative, neutral, dominant, confidence, created_at) VALUES %s",
			s.recordsTable, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

func (s *ClickHouseRecordStore) Query(ctx context.Context, source repository.Source, from, to time.Time, limit int) ([]*models.SentimentRecord, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT id, source, text_fingerprint, positive, negative, neutral, dominant, confidence, created_at FROM %s WHERE created_at >= ? AND created_at < ?", s.recordsTable)
	args := []interface{}{from, to}
	if source != repository.SourceAll && source != "" {
		sb.WriteString(" AND source = ?")
		args = append(args, string(source))
	}
	sb.WriteString(" ORDER BY created_at ASC")
	if limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*models.SentimentRecord
	for rows.Next() {
		var r models.SentimentRecord
		var ts time.Time
		if err := rows.Scan(&r.ID, &r.Source, &r.TextFingerprint,
			&r.Score.Positive, &r.Score.Negative, &r.Score.Neutral,
			&r.Dominant, &r.Confidence, &ts); err != nil {
			return nil, err
		}
		r.CreatedAt = ts.UTC()
		recs = append(recs, &r)
	}
	return recs, rows.Err()
}

func (s *ClickHouseRecordStore) HistorySpanDays(ctx context.Context) (int, error) {
	q := fmt.Sprintf("SELECT count(), dateDiff('day', min(created_at), max(created_at)) FROM %s", s.recordsTable)
	var count uint64
	var span int64
	if err := s.db.QueryRowContext(ctx, q).Scan(&count, &span); err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, nil
	}
	return int(span) + 1, nil
}

func (s *ClickHouseRecordStore) LatestPredictionBatch(ctx context.Context, minHorizonDays int) ([]*models.PredictionPoint, error) {
	// Find the newest batch still covering the requested horizon.
	batchQ := fmt.Sprintf(`SELECT batch_id FROM %s WHERE date > today()
		GROUP BY batch_id, generated_at
		HAVING count() >= ?
		ORDER BY generated_at DESC LIMIT 1`, s.predictionTable)

	var batchID string
	if err := s.db.QueryRowContext(ctx, batchQ, minHorizonDays).Scan(&batchID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	pointsQ := fmt.Sprintf(`SELECT date, predicted, lower, upper, confidence, model_source
		FROM %s WHERE batch_id = ? AND date > today() ORDER BY date ASC`, s.predictionTable)
	rows, err := s.db.QueryContext(ctx, pointsQ, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pts []*models.PredictionPoint
	for rows.Next() {
		var p models.PredictionPoint
		var d time.Time
		if err := rows.Scan(&d, &p.Predicted, &p.Lower, &p.Upper, &p.Confidence, &p.ModelSource); err != nil {
			return nil, err
		}
		p.Date = d.UTC()
		pts = append(pts, &p)
	}
	return pts, rows.Err()
}

func (s *ClickHouseRecordStore) StorePredictionBatch(ctx context.Context, pts []*models.PredictionPoint) error {
	if len(pts) == 0 {
		return nil
	}
	batchID := uuid.NewString()
	generatedAt := time.Now().UTC()

	values := make([]string, 0, len(pts))
	args := make([]interface{}, 0, len(pts)*8)
	for _, p := range pts {
		if p == nil {
			continue
		}
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			batchID,
			generatedAt,
			p.Date.UTC(),
			p.Predicted,
			p.Lower,
			p.Upper,
			p.Confidence,
			p.ModelSource,
		)
	}
	if len(values) == 0 {
		return nil
	}
	q := fmt.Sprintf("INSERT INTO %s (batch_id, generated_at, date, predicted, lower, upper, confidence, model_source) VALUES %s",
		s.predictionTable, strings.Join(values, ","))
	_, err := s.db.ExecContext(ctx, q, args...)
	return err
}

func (s *ClickHouseRecordStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseRecordStore) Close() error {
	return nil // Managed by pkg
}

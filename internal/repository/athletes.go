package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/sysu-ecnc-dev/lineup-setter/backend/internal/domain"
)

const athleteSelect = `
	SELECT
		a.id,
		a.name,
		a.email,
		a.erg_score,
		a.side_preference,
		a.experience,
		a.days_since_boated,
		a.created_at,
		a.version,
		aa.present
	FROM athletes a
	LEFT JOIN athlete_attendance aa ON a.id = aa.athlete_id
`

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// scanAthletes 将 LEFT JOIN 出的多行记录聚合为运动员，出勤记录按 seq 排好序
func scanAthletes(ctx context.Context, q querier, query string, args ...any) ([]*domain.Athlete, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	athletes := make([]*domain.Athlete, 0)
	athletesMap := make(map[int64]*domain.Athlete)

	for rows.Next() {
		var row struct {
			ID              int64
			Name            string
			Email           string
			ErgScore        float64
			SidePreference  string
			Experience      string
			DaysSinceBoated int32
			CreatedAt       time.Time
			Version         int32
			Present         sql.NullBool
		}

		dst := []any{
			&row.ID,
			&row.Name,
			&row.Email,
			&row.ErgScore,
			&row.SidePreference,
			&row.Experience,
			&row.DaysSinceBoated,
			&row.CreatedAt,
			&row.Version,
			&row.Present,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}

		athlete, exists := athletesMap[row.ID]
		if !exists {
			athlete = &domain.Athlete{
				ID:                row.ID,
				Name:              row.Name,
				Email:             row.Email,
				ErgScore:          row.ErgScore,
				SidePreference:    domain.Side(row.SidePreference),
				Experience:        domain.Experience(row.Experience),
				AttendanceHistory: make([]domain.Attendance, 0),
				DaysSinceBoated:   row.DaysSinceBoated,
				CreatedAt:         row.CreatedAt,
				Version:           row.Version,
			}
			athletesMap[row.ID] = athlete
			athletes = append(athletes, athlete)
		}

		if !row.Present.Valid {
			// 没有任何出勤记录
			continue
		}

		if row.Present.Bool {
			athlete.AttendanceHistory = append(athlete.AttendanceHistory, domain.AttendancePresent)
		} else {
			athlete.AttendanceHistory = append(athlete.AttendanceHistory, domain.AttendanceAbsent)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return athletes, nil
}

func (r *Repository) GetAllAthletes() ([]*domain.Athlete, error) {
	ctx, cancel := r.queryContext()
	defer cancel()

	return scanAthletes(ctx, r.dbpool, athleteSelect+` ORDER BY a.id, aa.seq`)
}

// GetAthletesByIDs 按 id 查询运动员，不存在的 id 会被忽略
func (r *Repository) GetAthletesByIDs(ids []int64) ([]*domain.Athlete, error) {
	ctx, cancel := r.queryContext()
	defer cancel()

	return scanAthletes(ctx, r.dbpool, athleteSelect+` WHERE a.id = ANY($1) ORDER BY a.id, aa.seq`, ids)
}

func (r *Repository) GetAthleteByID(id int64) (*domain.Athlete, error) {
	ctx, cancel := r.queryContext()
	defer cancel()

	athletes, err := scanAthletes(ctx, r.dbpool, athleteSelect+` WHERE a.id = $1 ORDER BY aa.seq`, id)
	if err != nil {
		return nil, err
	}
	if len(athletes) == 0 {
		return nil, sql.ErrNoRows
	}

	return athletes[0], nil
}

func insertAttendance(ctx context.Context, tx *sql.Tx, athleteID int64, history []domain.Attendance) error {
	query := `
		INSERT INTO athlete_attendance (athlete_id, seq, present)
		VALUES ($1, $2, $3)
	`

	for i, record := range history {
		if _, err := tx.ExecContext(ctx, query, athleteID, i+1, record == domain.AttendancePresent); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) CreateAthlete(athlete *domain.Athlete) error {
	ctx, cancel := r.transactionContext()
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		INSERT INTO athletes (name, email, erg_score, side_preference, experience, days_since_boated)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, version
	`

	args := []any{athlete.Name, athlete.Email, athlete.ErgScore, athlete.SidePreference, athlete.Experience, athlete.DaysSinceBoated}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&athlete.ID, &athlete.CreatedAt, &athlete.Version); err != nil {
		return err
	}

	if err := insertAttendance(ctx, tx, athlete.ID, athlete.AttendanceHistory); err != nil {
		return err
	}

	return tx.Commit()
}

// ImportAthletes 按名字导入名单，已存在的运动员会被覆盖（包括出勤记录）
func (r *Repository) ImportAthletes(athletes []*domain.Athlete) error {
	ctx, cancel := r.transactionContext()
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	upsert := `
		INSERT INTO athletes (name, email, erg_score, side_preference, experience, days_since_boated)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (name) DO UPDATE SET
			email = EXCLUDED.email,
			erg_score = EXCLUDED.erg_score,
			side_preference = EXCLUDED.side_preference,
			experience = EXCLUDED.experience,
			days_since_boated = EXCLUDED.days_since_boated,
			version = athletes.version + 1
		RETURNING id, created_at, version
	`

	for _, athlete := range athletes {
		args := []any{athlete.Name, athlete.Email, athlete.ErgScore, athlete.SidePreference, athlete.Experience, athlete.DaysSinceBoated}
		if err := tx.QueryRowContext(ctx, upsert, args...).Scan(&athlete.ID, &athlete.CreatedAt, &athlete.Version); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM athlete_attendance WHERE athlete_id = $1`, athlete.ID); err != nil {
			return err
		}
		if err := insertAttendance(ctx, tx, athlete.ID, athlete.AttendanceHistory); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// UpdateAthlete 不修改出勤记录，版本不匹配时返回 sql.ErrNoRows
func (r *Repository) UpdateAthlete(athlete *domain.Athlete) error {
	query := `
		UPDATE athletes
		SET
			name = $1,
			email = $2,
			erg_score = $3,
			side_preference = $4,
			experience = $5,
			days_since_boated = $6,
			version = version + 1
		WHERE id = $7 AND version = $8
		RETURNING version
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	args := []any{athlete.Name, athlete.Email, athlete.ErgScore, athlete.SidePreference, athlete.Experience, athlete.DaysSinceBoated, athlete.ID, athlete.Version}
	return r.dbpool.QueryRowContext(ctx, query, args...).Scan(&athlete.Version)
}

// AppendAttendance 在出勤记录末尾追加一条
func (r *Repository) AppendAttendance(athleteID int64, record domain.Attendance) error {
	query := `
		INSERT INTO athlete_attendance (athlete_id, seq, present)
		SELECT $1, COALESCE(MAX(seq), 0) + 1, $2
		FROM athlete_attendance
		WHERE athlete_id = $1
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	_, err := r.dbpool.ExecContext(ctx, query, athleteID, record == domain.AttendancePresent)
	return err
}

func (r *Repository) DeleteAthlete(id int64) error {
	query := `DELETE FROM athletes WHERE id = $1`

	ctx, cancel := r.queryContext()
	defer cancel()

	_, err := r.dbpool.ExecContext(ctx, query, id)
	return err
}

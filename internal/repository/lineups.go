package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/sysu-ecnc-dev/lineup-setter/backend/internal/domain"
)

func (r *Repository) InsertLineup(lineup *domain.Lineup) error {
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
		INSERT INTO lineups (name, boat_size, multi_boat, cost, runs, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, published, created_at, version
	`

	args := []any{lineup.Name, lineup.BoatSize, lineup.MultiBoat, lineup.Cost, lineup.Runs, lineup.CreatedBy}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&lineup.ID, &lineup.Published, &lineup.CreatedAt, &lineup.Version); err != nil {
		return err
	}

	for _, boat := range lineup.Boats {
		query := `
			INSERT INTO lineup_boats (lineup_id, number)
			VALUES ($1, $2)
			RETURNING id
		`

		var boatID int64
		if err := tx.QueryRowContext(ctx, query, lineup.ID, boat.Number).Scan(&boatID); err != nil {
			return err
		}

		for _, seat := range boat.Seats {
			query := `
				INSERT INTO lineup_seats (lineup_boat_id, position, side, athlete_id)
				VALUES ($1, $2, $3, $4)
			`

			if _, err := tx.ExecContext(ctx, query, boatID, seat.Position, seat.Side, seat.AthleteID); err != nil {
				return err
			}
		}
	}

	for _, athleteID := range lineup.UnassignedAthleteIDs {
		query := `
			INSERT INTO lineup_unassigned (lineup_id, athlete_id)
			VALUES ($1, $2)
		`

		if _, err := tx.ExecContext(ctx, query, lineup.ID, athleteID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *Repository) GetLineupByID(id int64) (*domain.Lineup, error) {
	ctx, cancel := r.queryContext()
	defer cancel()

	query := `
		SELECT
			l.name,
			l.boat_size,
			l.multi_boat,
			l.cost,
			l.runs,
			l.created_by,
			l.published,
			l.created_at,
			l.version,
			lb.number,
			ls.position,
			ls.side,
			ls.athlete_id,
			a.name
		FROM lineups l
		LEFT JOIN lineup_boats lb ON l.id = lb.lineup_id
		LEFT JOIN lineup_seats ls ON lb.id = ls.lineup_boat_id
		LEFT JOIN athletes a ON ls.athlete_id = a.id
		WHERE l.id = $1
		ORDER BY lb.number, ls.position
	`

	rows, err := r.dbpool.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lineup *domain.Lineup
	boatsMap := make(map[int]int) // boat number -> index in lineup.Boats

	for rows.Next() {
		var row struct {
			Name        string
			BoatSize    int
			MultiBoat   bool
			Cost        float64
			Runs        int
			CreatedBy   int64
			Published   bool
			CreatedAt   time.Time
			Version     int32
			BoatNumber  sql.NullInt32
			Position    sql.NullInt32
			Side        sql.NullString
			AthleteID   sql.NullInt64
			AthleteName sql.NullString
		}

		dst := []any{
			&row.Name,
			&row.BoatSize,
			&row.MultiBoat,
			&row.Cost,
			&row.Runs,
			&row.CreatedBy,
			&row.Published,
			&row.CreatedAt,
			&row.Version,
			&row.BoatNumber,
			&row.Position,
			&row.Side,
			&row.AthleteID,
			&row.AthleteName,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}

		if lineup == nil {
			lineup = &domain.Lineup{
				ID:                   id,
				Name:                 row.Name,
				BoatSize:             row.BoatSize,
				MultiBoat:            row.MultiBoat,
				Cost:                 row.Cost,
				Runs:                 row.Runs,
				Boats:                make([]domain.LineupBoat, 0),
				UnassignedAthleteIDs: make([]int64, 0),
				CreatedBy:            row.CreatedBy,
				Published:            row.Published,
				CreatedAt:            row.CreatedAt,
				Version:              row.Version,
			}
		}

		if !row.BoatNumber.Valid {
			continue
		}

		idx, exists := boatsMap[int(row.BoatNumber.Int32)]
		if !exists {
			idx = len(lineup.Boats)
			boatsMap[int(row.BoatNumber.Int32)] = idx
			lineup.Boats = append(lineup.Boats, domain.LineupBoat{
				Number: int(row.BoatNumber.Int32),
				Seats:  make([]domain.LineupSeat, 0, row.BoatSize),
			})
		}

		if !row.Position.Valid {
			continue
		}

		lineup.Boats[idx].Seats = append(lineup.Boats[idx].Seats, domain.LineupSeat{
			Position:  int(row.Position.Int32),
			Side:      domain.Side(row.Side.String),
			AthleteID: row.AthleteID.Int64,
			Name:      row.AthleteName.String,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if lineup == nil {
		return nil, sql.ErrNoRows
	}

	unassigned, err := r.dbpool.QueryContext(ctx, `SELECT athlete_id FROM lineup_unassigned WHERE lineup_id = $1 ORDER BY athlete_id`, id)
	if err != nil {
		return nil, err
	}
	defer unassigned.Close()

	for unassigned.Next() {
		var athleteID int64
		if err := unassigned.Scan(&athleteID); err != nil {
			return nil, err
		}
		lineup.UnassignedAthleteIDs = append(lineup.UnassignedAthleteIDs, athleteID)
	}

	if err := unassigned.Err(); err != nil {
		return nil, err
	}

	return lineup, nil
}

// GetAllLineups 只返回概要信息，不包含座位
func (r *Repository) GetAllLineups() ([]*domain.Lineup, error) {
	query := `
		SELECT id, name, boat_size, multi_boat, cost, runs, created_by, published, created_at, version
		FROM lineups
		ORDER BY created_at DESC
	`

	ctx, cancel := r.queryContext()
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lineups := make([]*domain.Lineup, 0)
	for rows.Next() {
		l := &domain.Lineup{}
		dst := []any{&l.ID, &l.Name, &l.BoatSize, &l.MultiBoat, &l.Cost, &l.Runs, &l.CreatedBy, &l.Published, &l.CreatedAt, &l.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		lineups = append(lineups, l)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return lineups, nil
}

// PublishLineup 将阵容标记为已发布，并在同一事务中更新等待天数：
// 上艇的运动员清零，参与本次排艇但没有上艇的加一
func (r *Repository) PublishLineup(lineup *domain.Lineup) error {
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
		UPDATE lineups
		SET published = TRUE, version = version + 1
		WHERE id = $1 AND version = $2 AND NOT published
		RETURNING version
	`

	if err := tx.QueryRowContext(ctx, query, lineup.ID, lineup.Version).Scan(&lineup.Version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrLineupAlreadyPublished
		}
		return err
	}

	query = `
		UPDATE athletes
		SET days_since_boated = 0, version = version + 1
		WHERE id = ANY($1)
	`
	if _, err := tx.ExecContext(ctx, query, lineup.BoatedAthleteIDs()); err != nil {
		return err
	}

	query = `
		UPDATE athletes
		SET days_since_boated = days_since_boated + 1, version = version + 1
		WHERE id = ANY($1)
	`
	if _, err := tx.ExecContext(ctx, query, lineup.UnassignedAthleteIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	lineup.Published = true
	return nil
}

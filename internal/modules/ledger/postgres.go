package ledger

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"adile/internal/modules/pricing"
	"adile/internal/modules/ride"
	"adile/internal/types"
)

const rideColumns = `
    id, passenger_id, passenger_name,
    pickup_address, pickup_lat, pickup_lng,
    dropoff_address, dropoff_lat, dropoff_lng,
    offered_price, currency, vehicle, status,
    driver_id, driver_name, version,
    created_at, accepted_at, started_at, completed_at, cancelled_at, cancelled_by`

type PostgresLedger struct {
	db *pgxpool.Pool
}

func NewPostgresLedger(db *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{db: db}
}

func (l *PostgresLedger) Append(ctx context.Context, r ride.Ride) error {
	tag, err := l.db.Exec(ctx, `
        INSERT INTO rides (`+rideColumns+`
        ) VALUES (
            $1, $2, $3,
            $4, $5, $6,
            $7, $8, $9,
            $10, $11, $12, $13,
            $14, $15, $16,
            $17, $18, $19, $20, $21, $22
        )
        ON CONFLICT (id) DO NOTHING`,
		string(r.ID), string(r.PassengerID), r.PassengerName,
		r.Pickup.Address, r.Pickup.Point.Lat, r.Pickup.Point.Lng,
		r.Dropoff.Address, r.Dropoff.Point.Lat, r.Dropoff.Point.Lng,
		r.OfferedPrice.Amount, r.OfferedPrice.Currency, string(r.Vehicle), string(r.Status),
		idPtr(r.DriverID), r.DriverName, r.Version,
		r.CreatedAt, r.AcceptedAt, r.StartedAt, r.CompletedAt, r.CancelledAt, idPtr(r.CancelledBy),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDuplicateID
	}
	return nil
}

// Replace only rewrites the mutable columns; identity, route and price are
// fixed at creation.
func (l *PostgresLedger) Replace(ctx context.Context, r ride.Ride) (ride.Ride, error) {
	tag, err := l.db.Exec(ctx, `
        UPDATE rides
        SET status = $1,
            driver_id = $2,
            driver_name = $3,
            accepted_at = $4,
            started_at = $5,
            completed_at = $6,
            cancelled_at = $7,
            cancelled_by = $8,
            version = version + 1
        WHERE id = $9 AND version = $10`,
		string(r.Status),
		idPtr(r.DriverID),
		r.DriverName,
		r.AcceptedAt, r.StartedAt, r.CompletedAt, r.CancelledAt,
		idPtr(r.CancelledBy),
		string(r.ID),
		r.Version,
	)
	if err != nil {
		return ride.Ride{}, err
	}
	if tag.RowsAffected() == 1 {
		r.Version++
		return r, nil
	}
	var exists bool
	if err := l.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM rides WHERE id = $1)`, string(r.ID)).Scan(&exists); err != nil {
		return ride.Ride{}, err
	}
	if !exists {
		return ride.Ride{}, ErrNotFound
	}
	return ride.Ride{}, ErrVersionConflict
}

func (l *PostgresLedger) Get(ctx context.Context, id types.ID) (ride.Ride, error) {
	row := l.db.QueryRow(ctx, `SELECT `+rideColumns+` FROM rides WHERE id = $1`, string(id))
	r, err := scanRide(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return ride.Ride{}, ErrNotFound
	}
	return r, err
}

func (l *PostgresLedger) QueryBy(ctx context.Context, f Filter) ([]ride.Ride, error) {
	var statuses []string
	for _, s := range f.Statuses {
		statuses = append(statuses, string(s))
	}
	rows, err := l.db.Query(ctx, `
        SELECT `+rideColumns+`
        FROM rides
        WHERE ($1::text[] IS NULL OR status = ANY($1))
          AND ($2 = '' OR passenger_id = $2 OR driver_id = $2)
        ORDER BY created_at, id`,
		statuses, string(f.Participant),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]ride.Ride, 0)
	for rows.Next() {
		r, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanRide(row pgx.Row) (ride.Ride, error) {
	var (
		r                  ride.Ride
		vehicle, status    string
		driverID, cancelBy *string
	)
	err := row.Scan(
		&r.ID, &r.PassengerID, &r.PassengerName,
		&r.Pickup.Address, &r.Pickup.Point.Lat, &r.Pickup.Point.Lng,
		&r.Dropoff.Address, &r.Dropoff.Point.Lat, &r.Dropoff.Point.Lng,
		&r.OfferedPrice.Amount, &r.OfferedPrice.Currency, &vehicle, &status,
		&driverID, &r.DriverName, &r.Version,
		&r.CreatedAt, &r.AcceptedAt, &r.StartedAt, &r.CompletedAt, &r.CancelledAt, &cancelBy,
	)
	if err != nil {
		return ride.Ride{}, err
	}
	r.Vehicle = pricing.VehicleClass(vehicle)
	r.Status = ride.Status(status)
	r.DriverID = toIDPtr(driverID)
	r.CancelledBy = toIDPtr(cancelBy)
	r.CreatedAt = r.CreatedAt.UTC()
	return r, nil
}

func idPtr(id *types.ID) *string {
	if id == nil {
		return nil
	}
	v := string(*id)
	return &v
}

func toIDPtr(s *string) *types.ID {
	if s == nil {
		return nil
	}
	v := types.ID(*s)
	return &v
}

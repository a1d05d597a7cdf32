// internal/assignment/postgres.go
package assignment

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// Registers the "postgres" database/sql driver
	_ "github.com/lib/pq"

	"housegate/internal/observability/logging"
)

// PostgresStore reads assignment edges from PostgreSQL. Every query runs
// under a bounded timeout so a slow store degrades into a fail-closed
// denial instead of a hung request.
type PostgresStore struct {
	db      *sql.DB
	timeout time.Duration
	logger  *logging.Logger
}

// NewPostgresStore creates a store over an existing database handle
func NewPostgresStore(db *sql.DB, queryTimeout time.Duration, logger *logging.Logger) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if queryTimeout <= 0 {
		queryTimeout = 2 * time.Second
	}
	return &PostgresStore{
		db:      db,
		timeout: queryTimeout,
		logger:  logger.WithModule("assignment.postgres"),
	}, nil
}

// relationTable maps a relation to its backing table
func relationTable(relation Relation) (string, error) {
	switch relation {
	case RelationAdminOf:
		return "house_admins", nil
	case RelationResidentOf:
		return "house_residents", nil
	default:
		return "", fmt.Errorf("unknown relation %q", relation)
	}
}

// HasEdge implements Store
func (s *PostgresStore) HasEdge(ctx context.Context, relation Relation, subjectID, houseID string) (bool, error) {
	table, err := relationTable(relation)
	if err != nil {
		return false, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE subject_id = $1 AND house_id = $2)", table)
	var exists bool
	if err := s.db.QueryRowContext(ctx, query, subjectID, houseID).Scan(&exists); err != nil {
		return false, fmt.Errorf("%w: %s edge lookup: %v", ErrStoreUnavailable, relation, err)
	}
	return exists, nil
}

// AdminOf implements Store
func (s *PostgresStore) AdminOf(ctx context.Context, subjectID string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		"SELECT house_id FROM house_admins WHERE subject_id = $1 ORDER BY house_id", subjectID)
	if err != nil {
		return nil, fmt.Errorf("%w: admin_of lookup: %v", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var houses []string
	for rows.Next() {
		var houseID string
		if err := rows.Scan(&houseID); err != nil {
			return nil, fmt.Errorf("%w: admin_of scan: %v", ErrStoreUnavailable, err)
		}
		houses = append(houses, houseID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: admin_of rows: %v", ErrStoreUnavailable, err)
	}
	return houses, nil
}

// ResidentOf implements Store
func (s *PostgresStore) ResidentOf(ctx context.Context, subjectID string) ([]Residency, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		"SELECT house_id, status FROM house_residents WHERE subject_id = $1 ORDER BY house_id", subjectID)
	if err != nil {
		return nil, fmt.Errorf("%w: resident_of lookup: %v", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var residencies []Residency
	for rows.Next() {
		var r Residency
		if err := rows.Scan(&r.HouseID, &r.Status); err != nil {
			return nil, fmt.Errorf("%w: resident_of scan: %v", ErrStoreUnavailable, err)
		}
		residencies = append(residencies, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: resident_of rows: %v", ErrStoreUnavailable, err)
	}
	return residencies, nil
}

// Ping verifies the database is reachable, used at startup
func (s *PostgresStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: ping: %v", ErrStoreUnavailable, err)
	}
	return nil
}

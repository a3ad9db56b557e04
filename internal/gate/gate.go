// Package gate enforces the one external precondition of the
// assessment engine: a participant's résumé must be complete before
// any track accepts submissions. The résumé wizard itself lives in a
// collaborating system; this package only reads its completion flag.
package gate

import (
	"context"
	"database/sql"
	"errors"

	"github.com/talentroute/assessment-engine/internal/assess"
)

type Checker interface {
	Completed(ctx context.Context, userID string) (bool, error)
}

// SQLChecker reads the completion flag the résumé collaborator
// maintains on the user row.
type SQLChecker struct {
	db *sql.DB
}

func NewSQLChecker(db *sql.DB) *SQLChecker { return &SQLChecker{db: db} }

func (c *SQLChecker) Completed(ctx context.Context, userID string) (bool, error) {
	var done int
	err := c.db.QueryRowContext(ctx,
		`SELECT resume_completed FROM users WHERE id=$1`, userID).Scan(&done)
	if errors.Is(err, sql.ErrNoRows) {
		return false, assess.ErrPrerequisiteNotMet
	}
	if err != nil {
		return false, err
	}
	return done != 0, nil
}

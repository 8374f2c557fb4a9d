package db

import (
	"fmt"
	"log"
	"time"
)

// CleanOldData drops samples and events received before the retention
// period, and programs not seen since.
func (db *DB) CleanOldData(retentionPeriod time.Duration) (err error) {
	cutoff := time.Now().Add(-retentionPeriod).UnixNano()

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFailedToBeginTx, err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Printf("failed to rollback: %v", rbErr)
			}

			return
		}

		err = tx.Commit()
	}()

	// Clean up probe samples
	if _, err = tx.Exec("DELETE FROM probe_values WHERE received < ?", cutoff); err != nil {
		return fmt.Errorf("%w probe values: %w", ErrFailedToClean, err)
	}

	// Clean up events
	if _, err = tx.Exec("DELETE FROM events WHERE received < ?", cutoff); err != nil {
		return fmt.Errorf("%w events: %w", ErrFailedToClean, err)
	}

	// Clean up programs, their probes follow
	if _, err = tx.Exec("DELETE FROM programs WHERE last_seen < ?", cutoff); err != nil {
		return fmt.Errorf("%w programs: %w", ErrFailedToClean, err)
	}

	return nil
}

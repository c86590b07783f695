package database

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// streamRows runs query as a cursor and hands each scanned row to fn, stopping at
// the first error. Only one row is held in memory at a time.
func streamRows[T any](query *gorm.DB, fn func(*T) error) (err error) {
	rows, err := query.Rows()
	if err != nil {
		return errors.Wrap(err, "failed to open row cursor")
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = errors.Wrap(closeErr, "failed to close row cursor")
		}
	}()

	for rows.Next() {
		row := new(T)
		if err := query.ScanRows(rows, row); err != nil {
			return errors.Wrap(err, "failed to scan row")
		}
		if err := fn(row); err != nil {
			return err
		}
	}

	return errors.Wrap(rows.Err(), "row cursor failed")
}

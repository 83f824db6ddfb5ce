// Package repository defines the persistence contracts of the scheduling
// engine and their two implementations: a MySQL store used in production
// and an in-memory store used in development and tests.  The sentinel
// values below let the service layer distinguish "no such record" from a
// store that is failing.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the requested reservation or catalog item
// does not exist.  The service layer maps it to service.ErrNotFound.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write collides with an existing record,
// such as a second catalog item with the same name and resource type.
// Handlers should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// mysqlDuplicateEntry is the server error number for a unique key violation.
const mysqlDuplicateEntry = 1062

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

// Package lock provides keyed mutual exclusion for per-employee-per-day writes.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotAcquired is returned when a lock could not be obtained before the wait limit.
var ErrNotAcquired = errors.New("lock not acquired")

// Locker serializes work on a key. The returned release func must be called exactly once.
type Locker interface {
	Lock(ctx context.Context, key string) (release func(), err error)
}

// EmployeeDayKey builds the lock key for an employee's calendar day.
func EmployeeDayKey(scope, employeeID string, date time.Time) string {
	return fmt.Sprintf("%s:%s:%s", scope, employeeID, date.Format("2006-01-02"))
}

// EmployeeKey builds the lock key for state that is unique per employee regardless of day.
func EmployeeKey(scope, employeeID string) string {
	return scope + ":" + employeeID
}

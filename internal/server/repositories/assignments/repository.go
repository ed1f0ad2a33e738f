// Package assignments answers whether a student currently belongs to a
// counselor's caseload.
package assignments

import "context"

type Repository interface {
	IsAssigned(ctx context.Context, studentID, counselorID string) (bool, error)
}

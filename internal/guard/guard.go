// Package guard decides whether a caller may touch a task. It is a pure
// decision function with no side effects and is safe for concurrent use.
package guard

import (
	"github.com/google/uuid"

	"github.com/edubrovskiy/task-tracker-api/internal/model"
)

type Decision int

const (
	Authorized Decision = iota
	NotFound
	Forbidden
)

func (d Decision) String() string {
	switch d {
	case Authorized:
		return "authorized"
	case NotFound:
		return "not found"
	case Forbidden:
		return "forbidden"
	}
	return "unknown"
}

// Check authorizes a caller against a task fetched by id. A nil task means
// the record does not exist.
func Check(caller uuid.UUID, t *model.Task) Decision {
	if t == nil {
		return NotFound
	}
	if t.OwnerID != caller {
		return Forbidden
	}
	return Authorized
}

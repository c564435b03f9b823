// Package query translates list-request parameters into a storage-agnostic
// filter and sort specification. Every spec is scoped to the owner that built
// it; no parameter can widen that scope.
package query

import "github.com/google/uuid"

type Sort int

const (
	// SortDefault orders by creation time, most recent first. Used whenever
	// sortBy is absent or unrecognized.
	SortDefault Sort = iota
	// SortDueDate orders by due date ascending, soonest first.
	SortDueDate
	// SortPriority orders High, Medium, Low by fixed ordinal.
	SortPriority
)

// Params are the four optional list parameters as received from the caller.
type Params struct {
	Search   string
	Status   string
	Priority string
	SortBy   string
}

// Spec is the resolved plan. Filters are AND-ed; empty filter fields impose
// no restriction. Unrecognized status/priority values are passed through and
// match nothing, mirroring a plain equality predicate.
type Spec struct {
	Owner    uuid.UUID
	Search   string
	Status   string
	Priority string
	Sort     Sort
}

func Build(owner uuid.UUID, p Params) Spec {
	s := Spec{
		Owner:    owner,
		Search:   p.Search,
		Status:   p.Status,
		Priority: p.Priority,
	}
	switch p.SortBy {
	case "dueDate":
		s.Sort = SortDueDate
	case "priority":
		s.Sort = SortPriority
	default:
		s.Sort = SortDefault
	}
	return s
}

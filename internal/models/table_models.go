package models

import "time"

// TableStatus defines the type for table occupancy states.
type TableStatus string

const (
	TableStatusFree        TableStatus = "free"
	TableStatusOccupied    TableStatus = "occupied"
	TableStatusReserved    TableStatus = "reserved"
	TableStatusMaintenance TableStatus = "maintenance"
)

// tableTransitions lists every legal occupancy transition. Anything not listed
// is rejected by the service with an invalid-transition error.
var tableTransitions = map[TableStatus][]TableStatus{
	TableStatusFree:        {TableStatusOccupied, TableStatusReserved, TableStatusMaintenance},
	TableStatusOccupied:    {TableStatusFree},
	TableStatusReserved:    {TableStatusOccupied, TableStatusFree},
	TableStatusMaintenance: {TableStatusFree},
}

// IsValidTableStatus checks if the provided status string is a valid TableStatus.
func IsValidTableStatus(status string) bool {
	switch TableStatus(status) {
	case TableStatusFree, TableStatusOccupied, TableStatusReserved, TableStatusMaintenance:
		return true
	default:
		return false
	}
}

// CanTransitionTable reports whether a table may move from one status to another.
func CanTransitionTable(from, to TableStatus) bool {
	for _, allowed := range tableTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// RestaurantTable represents a physical table in the dining room.
// Tables are created at setup time and never deleted, only deactivated.
type RestaurantTable struct {
	ID              int64       `json:"id" db:"id"`
	Name            string      `json:"name" db:"name" binding:"required"`
	Capacity        int         `json:"capacity" db:"capacity" binding:"required,gt=0"`
	Zone            *string     `json:"zone,omitempty" db:"zone"`
	Status          TableStatus `json:"status" db:"status"`
	StatusMotive    *string     `json:"status_motive,omitempty" db:"status_motive"`
	StatusChangedAt time.Time   `json:"status_changed_at" db:"status_changed_at"`
	IsActive        bool        `json:"is_active" db:"is_active"`
	CreatedAt       time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at" db:"updated_at"`
}

// TableFilters defines the available filters for querying tables.
type TableFilters struct {
	Status     *string `form:"status"`
	Zone       *string `form:"zone"`
	OnlyActive bool    `form:"only_active"`
}

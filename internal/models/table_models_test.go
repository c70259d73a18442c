package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionTable(t *testing.T) {
	tests := []struct {
		name    string
		from    TableStatus
		to      TableStatus
		allowed bool
	}{
		{"free to occupied", TableStatusFree, TableStatusOccupied, true},
		{"free to reserved", TableStatusFree, TableStatusReserved, true},
		{"free to maintenance", TableStatusFree, TableStatusMaintenance, true},
		{"occupied to free", TableStatusOccupied, TableStatusFree, true},
		{"reserved to occupied", TableStatusReserved, TableStatusOccupied, true},
		{"reserved to free", TableStatusReserved, TableStatusFree, true},
		{"maintenance to free", TableStatusMaintenance, TableStatusFree, true},

		{"occupied to reserved", TableStatusOccupied, TableStatusReserved, false},
		{"occupied to maintenance", TableStatusOccupied, TableStatusMaintenance, false},
		{"reserved to maintenance", TableStatusReserved, TableStatusMaintenance, false},
		{"maintenance to occupied", TableStatusMaintenance, TableStatusOccupied, false},
		{"maintenance to reserved", TableStatusMaintenance, TableStatusReserved, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, CanTransitionTable(tt.from, tt.to))
		})
	}
}

func TestIsValidTableStatus(t *testing.T) {
	assert.True(t, IsValidTableStatus("free"))
	assert.True(t, IsValidTableStatus("maintenance"))
	assert.False(t, IsValidTableStatus("closed"))
	assert.False(t, IsValidTableStatus(""))
}

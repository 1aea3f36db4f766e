package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.heddle.dev/heddle/internal/core/domain"
)

func TestVertexStatus(t *testing.T) {
	tests := []struct {
		name       string
		status     domain.VertexStatus
		isTerminal bool
	}{
		{"Pending", domain.VertexStatusPending, false},
		{"Running", domain.VertexStatusRunning, false},
		{"Completed", domain.VertexStatusCompleted, true},
		{"Failed", domain.VertexStatusFailed, true},
		{"Cached", domain.VertexStatusCached, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.isTerminal, tt.status.IsTerminal())
		})
	}
}

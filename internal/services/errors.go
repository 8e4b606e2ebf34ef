package services

import (
	"fmt"

	"github.com/abrezinsky/lottorank/internal/errors"
)

// Service errors
var (
	ErrInvalidTicketCount = &ServiceError{Message: fmt.Sprintf("tickets per draw must be between 1 and %d", MaxTicketsPerDraw)}
	ErrInvalidDrawRange   = &ServiceError{Message: "draw range is invalid"}
	ErrInvalidLimit       = &ServiceError{Message: "limit must be positive"}

	ErrSimulationRunning    = errors.Conflict("simulation already running")
	ErrSimulationNotRunning = errors.Conflict("no simulation is running")
	ErrNoDrawHistory        = errors.Unavailable("no draw history available")
	ErrSimulationIncomplete = errors.Unavailable("simulation results incomplete, rankings not published")
)

// ServiceError represents a service-level error
type ServiceError struct {
	Message string
}

func (e *ServiceError) Error() string {
	return e.Message
}

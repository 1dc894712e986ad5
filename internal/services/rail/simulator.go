package rail

import (
	"context"
	"time"

	"railpay/internal/models"

	"github.com/google/uuid"
)

// Simulator acknowledges every transfer. It stands in for the clearing
// gateway when none is configured.
type Simulator struct {
	rail    models.RailType
	latency time.Duration
}

func NewSimulator(rail models.RailType, latency time.Duration) *Simulator {
	return &Simulator{rail: rail, latency: latency}
}

func (s *Simulator) Rail() models.RailType { return s.rail }

func (s *Simulator) InitiateTransfer(ctx context.Context, req TransferRequest) (*Receipt, error) {
	if s.latency > 0 {
		timer := time.NewTimer(s.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ErrRailUnavailable.WithMessage(string(s.rail) + " request timed out").Wrap(ctx.Err())
		case <-timer.C:
		}
	}
	return &Receipt{
		RailReference: string(s.rail) + "-" + uuid.NewString(),
		Status:        "ACCEPTED",
		AcceptedAt:    time.Now().UTC(),
	}, nil
}

func NewSimulatorRegistry(limits Limits) *Registry {
	return NewRegistry(limits,
		NewSimulator(models.RailBIFAST, 0),
		NewSimulator(models.RailSKN, 0),
		NewSimulator(models.RailRTGS, 0),
		NewSimulator(models.RailQRIS, 0))
}

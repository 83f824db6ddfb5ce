package service

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/amenity-reservation/internal/config"
	"github.com/iliyamo/amenity-reservation/internal/model"
)

// CancellationFees computes the fee recorded when a booking is cancelled.
type CancellationFees struct {
	policy config.Policy
}

// NewCancellationFees binds the calculator to p.
func NewCancellationFees(p config.Policy) CancellationFees {
	return CancellationFees{policy: p}
}

// ComputeCancellationFee returns the flat fee for t when start is less than
// the cancellation window away from now, and zero otherwise.  A start that
// is exactly one window away is free.
func (c CancellationFees) ComputeCancellationFee(t model.ResourceType, start, now time.Time) decimal.Decimal {
	if start.Sub(now) < c.policy.CancellationWindow {
		return c.policy.CancelFee(t)
	}
	return decimal.Zero
}

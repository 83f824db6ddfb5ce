package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/amenity-reservation/internal/config"
	"github.com/iliyamo/amenity-reservation/internal/model"
)

// Pricing computes booking costs from the configured rate tables.  Cost
// computation is pure; only Quote touches the store, through the
// availability checker.
type Pricing struct {
	policy config.Policy
	fees   CancellationFees
	avail  *Availability
}

// NewPricing builds the calculator.  avail may be nil when only the pure
// calculations are needed.
func NewPricing(p config.Policy, avail *Availability) *Pricing {
	return &Pricing{policy: p, fees: NewCancellationFees(p), avail: avail}
}

// ComputeCost prices a booking of type t over [start, end).  The range is
// assumed valid.
func (p *Pricing) ComputeCost(t model.ResourceType, start, end time.Time) model.PriceBreakdown {
	switch t {
	case model.GuestSuite:
		return p.guestSuite(start, end)
	case model.SkyLounge:
		return model.PriceBreakdown{
			Total:     p.policy.SkyLoungeFlatRate,
			Breakdown: "Flat rate " + p.policy.SkyLoungeFlatRate.StringFixed(2),
		}
	}
	return model.PriceBreakdown{Total: decimal.Zero, Breakdown: "No charge"}
}

// guestSuite walks the stay night by night from the local calendar date of
// start.  Friday and Saturday nights use the weekend rate.
func (p *Pricing) guestSuite(start, end time.Time) model.PriceBreakdown {
	nights := Nights(start, end)
	first := localDate(start, p.policy.Location)
	total := decimal.Zero
	parts := make([]string, 0, nights)
	for i := 0; i < nights; i++ {
		night := first.AddDate(0, 0, i)
		rate := p.policy.GuestSuiteWeekdayRate
		if wd := night.Weekday(); wd == time.Friday || wd == time.Saturday {
			rate = p.policy.GuestSuiteWeekendRate
		}
		total = total.Add(rate)
		parts = append(parts, fmt.Sprintf("%s %s", night.Format("Mon"), rate.StringFixed(2)))
	}
	return model.PriceBreakdown{
		Total:     total,
		Nights:    &nights,
		Breakdown: strings.Join(parts, ", "),
	}
}

// ComputeCancellationFee delegates to the cancellation fee calculator.
func (p *Pricing) ComputeCancellationFee(t model.ResourceType, start, now time.Time) decimal.Decimal {
	return p.fees.ComputeCancellationFee(t, start, now)
}

// Quote is a preview of a submission: what it would cost and which rules
// it would break.  Nothing is persisted.
type Quote struct {
	Price    model.PriceBreakdown `json:"price"`
	Messages []string             `json:"messages"`
	Bookable bool                 `json:"bookable"`
}

// Quote prices proposed and runs the availability checker against it.
// The price is only computed when the time range is usable.
func (p *Pricing) Quote(ctx context.Context, proposed model.Reservation) (Quote, error) {
	proposed = normalize(proposed)
	var q Quote
	if p.avail != nil {
		msgs, err := p.avail.CheckAvailability(ctx, proposed, nil)
		if err != nil {
			return Quote{}, err
		}
		q.Messages = msgs
	}
	if !proposed.StartTime.IsZero() && proposed.StartTime.Before(proposed.EndTime) {
		q.Price = p.ComputeCost(proposed.ResourceType, proposed.StartTime, proposed.EndTime)
	}
	if q.Messages == nil {
		q.Messages = []string{}
	}
	q.Bookable = len(q.Messages) == 0
	return q, nil
}

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/iliyamo/amenity-reservation/internal/config"
	"github.com/iliyamo/amenity-reservation/internal/model"
	"github.com/iliyamo/amenity-reservation/internal/service"
)

// localLayout is accepted alongside RFC 3339 and read in the policy zone.
const localLayout = "2006-01-02T15:04"

func newQuoteCmd() *cobra.Command {
	var typ, start, end, at string

	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Price a booking and its cancellation fee from the configured rates",
		Example: "  amenityd quote --type guest_suite --start 2024-01-05T15:00 --end 2024-01-07T11:00\n" +
			"  amenityd quote --type sky_lounge --start 2024-01-06T10:00 --end 2024-01-06T14:00 --at 2024-01-05T09:00",
		RunE: func(cmd *cobra.Command, args []string) error {
			policy, err := config.LoadPolicy()
			if err != nil {
				return err
			}
			t, err := model.ParseResourceType(typ)
			if err != nil {
				return err
			}
			s, err := parseLocal(start, policy.Location)
			if err != nil {
				return fmt.Errorf("--start: %w", err)
			}
			e, err := parseLocal(end, policy.Location)
			if err != nil {
				return fmt.Errorf("--end: %w", err)
			}
			if !s.Before(e) {
				return fmt.Errorf("--start must be before --end")
			}
			now := time.Now()
			if at != "" {
				if now, err = parseLocal(at, policy.Location); err != nil {
					return fmt.Errorf("--at: %w", err)
				}
			}

			pricing := service.NewPricing(policy, nil)
			price := pricing.ComputeCost(t, s, e)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s to %s\n", t.Label(), s.In(policy.Location).Format(time.RFC1123), e.In(policy.Location).Format(time.RFC1123))
			fmt.Fprintf(out, "Total:      %s\n", price.Total.StringFixed(2))
			if price.Nights != nil {
				fmt.Fprintf(out, "Nights:     %d\n", *price.Nights)
			}
			fmt.Fprintf(out, "Breakdown:  %s\n", price.Breakdown)
			fee := pricing.ComputeCancellationFee(t, s, now)
			fmt.Fprintf(out, "Cancel fee: %s (if cancelled at %s)\n", fee.StringFixed(2), now.In(policy.Location).Format(time.RFC1123))
			return nil
		},
	}

	cmd.Flags().StringVar(&typ, "type", "", "resource type: guest_suite, sky_lounge or gear_shed")
	cmd.Flags().StringVar(&start, "start", "", "start time (RFC 3339 or 2006-01-02T15:04 local)")
	cmd.Flags().StringVar(&end, "end", "", "end time (RFC 3339 or 2006-01-02T15:04 local)")
	cmd.Flags().StringVar(&at, "at", "", "cancellation time for the fee (default now)")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func parseLocal(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.ParseInLocation(localLayout, s, loc)
}

package config

import (
    "errors"
    "fmt"
    "os"
    "time"

    "github.com/shopspring/decimal"

    "github.com/iliyamo/amenity-reservation/internal/model"
)

// Policy captures every deployment-tunable scheduling rule: stay minimums,
// lounge hours, rate tables and cancellation fees.  A Policy is built once
// at startup and handed to the pricing and availability components; it is
// treated as read-only after that.
type Policy struct {
    Location *time.Location // local time zone for calendar dates and opening hours

    GuestSuiteMinNights   int             // minimum stay in nights
    GuestSuiteWeekdayRate decimal.Decimal // Sunday to Thursday nights
    GuestSuiteWeekendRate decimal.Decimal // Friday and Saturday nights

    SkyLoungeFlatRate  decimal.Decimal // price of one block
    SkyLoungeOpenHour  int             // earliest allowed start hour (inclusive)
    SkyLoungeCloseHour int             // latest allowed start hour (exclusive)
    SkyLoungeBlock     time.Duration   // fixed booking length

    CancellationWindow  time.Duration   // fees apply when cancelling closer than this to the start
    GuestSuiteCancelFee decimal.Decimal // flat fee inside the window
    SkyLoungeCancelFee  decimal.Decimal // flat fee inside the window
    GearShedCancelFee   decimal.Decimal // flat fee inside the window
}

// DefaultPolicy returns the rules used when no overrides are configured.
func DefaultPolicy() Policy {
    loc, err := time.LoadLocation("America/Chicago")
    if err != nil {
        loc = time.UTC
    }
    return Policy{
        Location:              loc,
        GuestSuiteMinNights:   2,
        GuestSuiteWeekdayRate: decimal.NewFromInt(100),
        GuestSuiteWeekendRate: decimal.NewFromInt(125),
        SkyLoungeFlatRate:     decimal.NewFromInt(150),
        SkyLoungeOpenHour:     10,
        SkyLoungeCloseHour:    18,
        SkyLoungeBlock:        4 * time.Hour,
        CancellationWindow:    72 * time.Hour,
        GuestSuiteCancelFee:   decimal.NewFromInt(50),
        SkyLoungeCancelFee:    decimal.NewFromInt(75),
        GearShedCancelFee:     decimal.Zero,
    }
}

// CancelFee returns the flat fee charged for cancelling a booking of type t
// inside the cancellation window.
func (p Policy) CancelFee(t model.ResourceType) decimal.Decimal {
    switch t {
    case model.GuestSuite:
        return p.GuestSuiteCancelFee
    case model.SkyLounge:
        return p.SkyLoungeCancelFee
    case model.GearShed:
        return p.GearShedCancelFee
    }
    return decimal.Zero
}

// Validate rejects inconsistent rule combinations.
func (p Policy) Validate() error {
    var errs []error
    if p.Location == nil {
        errs = append(errs, errors.New("policy: time zone is required"))
    }
    if p.GuestSuiteMinNights < 1 {
        errs = append(errs, errors.New("policy: GUEST_SUITE_MIN_NIGHTS must be at least 1"))
    }
    if p.SkyLoungeOpenHour < 0 || p.SkyLoungeCloseHour > 24 || p.SkyLoungeOpenHour >= p.SkyLoungeCloseHour {
        errs = append(errs, fmt.Errorf("policy: invalid sky lounge hours [%d, %d)", p.SkyLoungeOpenHour, p.SkyLoungeCloseHour))
    }
    if p.SkyLoungeBlock <= 0 {
        errs = append(errs, errors.New("policy: SKY_LOUNGE_BLOCK_HOURS must be positive"))
    }
    if p.CancellationWindow < 0 {
        errs = append(errs, errors.New("policy: CANCELLATION_WINDOW must not be negative"))
    }
    for name, d := range map[string]decimal.Decimal{
        "GUEST_SUITE_WEEKDAY_RATE": p.GuestSuiteWeekdayRate,
        "GUEST_SUITE_WEEKEND_RATE": p.GuestSuiteWeekendRate,
        "SKY_LOUNGE_FLAT_RATE":     p.SkyLoungeFlatRate,
        "GUEST_SUITE_CANCEL_FEE":   p.GuestSuiteCancelFee,
        "SKY_LOUNGE_CANCEL_FEE":    p.SkyLoungeCancelFee,
        "GEAR_SHED_CANCEL_FEE":     p.GearShedCancelFee,
    } {
        if d.IsNegative() {
            errs = append(errs, fmt.Errorf("policy: %s must not be negative", name))
        }
    }
    return errors.Join(errs...)
}

// LoadPolicy builds a Policy from DefaultPolicy overridden by environment
// variables.
func LoadPolicy() (Policy, error) {
    p := DefaultPolicy()
    var errs []error
    collect := func(err error) {
        if err != nil {
            errs = append(errs, err)
        }
    }

    if tz := os.Getenv("TIME_ZONE"); tz != "" {
        loc, err := time.LoadLocation(tz)
        if err != nil {
            collect(fmt.Errorf("invalid TIME_ZONE %q: %w", tz, err))
        } else {
            p.Location = loc
        }
    }

    var err error
    p.GuestSuiteMinNights, err = intEnv("GUEST_SUITE_MIN_NIGHTS", p.GuestSuiteMinNights)
    collect(err)
    p.SkyLoungeOpenHour, err = intEnv("SKY_LOUNGE_OPEN_HOUR", p.SkyLoungeOpenHour)
    collect(err)
    p.SkyLoungeCloseHour, err = intEnv("SKY_LOUNGE_CLOSE_HOUR", p.SkyLoungeCloseHour)
    collect(err)
    blockHours, err := intEnv("SKY_LOUNGE_BLOCK_HOURS", int(p.SkyLoungeBlock/time.Hour))
    collect(err)
    p.SkyLoungeBlock = time.Duration(blockHours) * time.Hour
    p.CancellationWindow, err = durEnv("CANCELLATION_WINDOW", p.CancellationWindow)
    collect(err)

    p.GuestSuiteWeekdayRate, err = decimalEnv("GUEST_SUITE_WEEKDAY_RATE", p.GuestSuiteWeekdayRate)
    collect(err)
    p.GuestSuiteWeekendRate, err = decimalEnv("GUEST_SUITE_WEEKEND_RATE", p.GuestSuiteWeekendRate)
    collect(err)
    p.SkyLoungeFlatRate, err = decimalEnv("SKY_LOUNGE_FLAT_RATE", p.SkyLoungeFlatRate)
    collect(err)
    p.GuestSuiteCancelFee, err = decimalEnv("GUEST_SUITE_CANCEL_FEE", p.GuestSuiteCancelFee)
    collect(err)
    p.SkyLoungeCancelFee, err = decimalEnv("SKY_LOUNGE_CANCEL_FEE", p.SkyLoungeCancelFee)
    collect(err)
    p.GearShedCancelFee, err = decimalEnv("GEAR_SHED_CANCEL_FEE", p.GearShedCancelFee)
    collect(err)

    if len(errs) > 0 {
        return Policy{}, errors.Join(errs...)
    }
    if err := p.Validate(); err != nil {
        return Policy{}, err
    }
    return p, nil
}

func decimalEnv(key string, def decimal.Decimal) (decimal.Decimal, error) {
    s := os.Getenv(key)
    if s == "" {
        return def, nil
    }
    d, err := decimal.NewFromString(s)
    if err != nil {
        return decimal.Zero, fmt.Errorf("invalid amount for %s: %q", key, s)
    }
    return d, nil
}

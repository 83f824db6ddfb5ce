package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "amenityd dev")
}

func TestQuoteGuestSuiteWeekend(t *testing.T) {
	t.Setenv("TIME_ZONE", "America/Chicago")
	out, err := run(t, "quote", "--type", "guest-suite",
		"--start", "2024-01-05T15:00", "--end", "2024-01-07T11:00", "--at", "2024-01-04T09:00")
	require.NoError(t, err)
	assert.Contains(t, out, "Total:      250.00")
	assert.Contains(t, out, "Nights:     2")
	assert.Contains(t, out, "Breakdown:  Fri 125.00, Sat 125.00")
	assert.Contains(t, out, "Cancel fee: 50.00")
}

func TestQuoteOutsideCancellationWindow(t *testing.T) {
	t.Setenv("TIME_ZONE", "America/Chicago")
	out, err := run(t, "quote", "--type", "sky_lounge",
		"--start", "2024-01-06T10:00:00-06:00", "--end", "2024-01-06T14:00:00-06:00", "--at", "2024-01-01T09:00")
	require.NoError(t, err)
	assert.Contains(t, out, "Total:      150.00")
	assert.Contains(t, out, "Cancel fee: 0.00")
}

func TestQuoteRejectsBadInput(t *testing.T) {
	_, err := run(t, "quote", "--type", "boathouse", "--start", "2024-01-05T15:00", "--end", "2024-01-07T11:00")
	assert.Error(t, err)
	_, err = run(t, "quote", "--type", "gear_shed", "--start", "2024-01-07T11:00", "--end", "2024-01-05T15:00")
	assert.Error(t, err)
	_, err = run(t, "quote", "--type", "gear_shed")
	assert.Error(t, err)
}

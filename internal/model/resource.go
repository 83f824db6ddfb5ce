package model

import (
	"fmt"
	"strings"
)

// ResourceType identifies the amenity category a reservation or catalog
// item belongs to.  Every scheduling rule branches on it.
type ResourceType string

const (
	GuestSuite ResourceType = "GUEST_SUITE" // overnight suites, priced per night
	SkyLounge  ResourceType = "SKY_LOUNGE"  // event lounge, fixed daytime blocks
	GearShed   ResourceType = "GEAR_SHED"   // shared equipment, free of charge
)

// ResourceTypes lists every supported type in display order.
var ResourceTypes = []ResourceType{GuestSuite, SkyLounge, GearShed}

// Valid reports whether t is one of the known resource types.
func (t ResourceType) Valid() bool {
	switch t {
	case GuestSuite, SkyLounge, GearShed:
		return true
	}
	return false
}

// Label returns the human readable name used in validation messages.
func (t ResourceType) Label() string {
	switch t {
	case GuestSuite:
		return "Guest Suite"
	case SkyLounge:
		return "Sky Lounge"
	case GearShed:
		return "Gear Shed"
	}
	return string(t)
}

// ParseResourceType accepts the canonical value as well as the lower-case
// and hyphenated spellings used in query strings (guest-suite, sky_lounge).
func ParseResourceType(s string) (ResourceType, error) {
	norm := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_"))
	t := ResourceType(norm)
	if !t.Valid() {
		return "", fmt.Errorf("unknown resource type %q", s)
	}
	return t, nil
}

// ServiceStatus tells whether a catalog item can currently be offered.
type ServiceStatus string

const (
	InService    ServiceStatus = "IN_SERVICE"
	NotInService ServiceStatus = "NOT_IN_SERVICE"
)

// Valid reports whether s is a known service status.
func (s ServiceStatus) Valid() bool {
	return s == InService || s == NotInService
}

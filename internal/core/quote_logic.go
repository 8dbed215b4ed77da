package core

import (
	"errors"
	"fmt"
	"strings"
)

// floorSurchargePerFloor is the SEK charge per floor when carrying without an elevator.
const floorSurchargePerFloor = 500

// maxServiceQuantity bounds the quantity of a single service selection or
// ledger entry. Keeps SEK totals well inside int64.
const maxServiceQuantity = 1000

// Normalize cleans up a move specification coming from the public form,
// dealing with common formatting issues before validation.
func (m *MoveSpecification) Normalize() {
	m.MoveType = MoveType(strings.ToLower(strings.TrimSpace(string(m.MoveType))))
	m.MoveSize = MoveSize(strings.ToLower(strings.TrimSpace(string(m.MoveSize))))
}

// Validate rejects malformed specifications at the boundary so the pricing
// engine itself never sees an invalid enum value.
func (m *MoveSpecification) Validate() error {
	switch m.MoveType {
	case MoveLocal, MoveDistance, MoveInternational:
	default:
		return fmt.Errorf("invalid move type %q", m.MoveType)
	}

	switch m.MoveSize {
	case SizeSmall, SizeMedium, SizeLarge, SizeOffice:
	default:
		return fmt.Errorf("invalid move size %q", m.MoveSize)
	}

	if m.Start.Floors < 0 || m.End.Floors < 0 {
		return errors.New("floors cannot be negative")
	}
	if m.Start.ParkingDistance < 0 || m.End.ParkingDistance < 0 {
		return errors.New("parking distance cannot be negative")
	}
	return nil
}

// ValidateSelectedServices enforces the boundary rules for a service
// selection: known catalog ids, quantity between 1 and maxServiceQuantity,
// and no id listed twice.
// resolve maps a service id to its catalog entry; pass nil to use the
// built-in catalog.
func ValidateSelectedServices(services []SelectedService, resolve func(id string) (CatalogService, bool)) error {
	if resolve == nil {
		resolve = LookupCatalogService
	}
	seen := make(map[string]bool, len(services))
	for _, s := range services {
		if seen[s.ServiceID] {
			return fmt.Errorf("service %q listed more than once", s.ServiceID)
		}
		seen[s.ServiceID] = true

		if _, ok := resolve(s.ServiceID); !ok {
			return fmt.Errorf("unknown service %q", s.ServiceID)
		}
		if s.Quantity < 1 {
			return fmt.Errorf("service %q quantity must be at least 1", s.ServiceID)
		}
		if s.Quantity > maxServiceQuantity {
			return fmt.Errorf("service %q quantity cannot exceed %d", s.ServiceID, maxServiceQuantity)
		}
	}
	return nil
}

// FloorSurcharge prices carrying at one location: 500 SEK per floor when there
// are floors to climb and no elevator, otherwise nothing.
func FloorSurcharge(floors int, elevator bool) int64 {
	if floors > 0 && !elevator {
		return int64(floors) * floorSurchargePerFloor
	}
	return 0
}

// ComputeQuote prices a move. Pure function over already-validated inputs:
// the same specification and service selection always produce the same Quote,
// in exact integer SEK, so reissuing a quote from stored data reproduces the
// original total bit for bit.
//
// resolve maps a service id to its catalog entry for unit pricing; pass nil to
// use the built-in catalog. Unselected services and unknown ids contribute
// nothing (unknown ids are caught earlier by ValidateSelectedServices).
func ComputeQuote(m MoveSpecification, services []SelectedService, resolve func(id string) (CatalogService, bool)) Quote {
	if resolve == nil {
		resolve = LookupCatalogService
	}

	base := BasePrice(m.MoveType, m.MoveSize)
	surchargeStart := FloorSurcharge(m.Start.Floors, m.Start.Elevator)
	surchargeEnd := FloorSurcharge(m.End.Floors, m.End.Elevator)
	base += surchargeStart + surchargeEnd

	var additional int64
	for _, s := range services {
		if !s.Selected {
			continue
		}
		entry, ok := resolve(s.ServiceID)
		if !ok {
			continue
		}
		additional += entry.UnitPrice * s.Quantity
	}

	return Quote{
		BasePrice: base,
		Surcharges: Surcharges{
			FloorsStart: surchargeStart,
			FloorsEnd:   surchargeEnd,
		},
		AdditionalServicesTotal: additional,
		TotalPrice:              base + additional,
	}
}

package core_test

import (
	"testing"

	"moveflow/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBasePrice_Table(t *testing.T) {
	tests := []struct {
		moveType core.MoveType
		moveSize core.MoveSize
		want     int64
	}{
		{core.MoveLocal, core.SizeSmall, 3500},
		{core.MoveLocal, core.SizeMedium, 5500},
		{core.MoveLocal, core.SizeLarge, 8500},
		{core.MoveLocal, core.SizeOffice, 12000},
		{core.MoveDistance, core.SizeSmall, 6500},
		{core.MoveDistance, core.SizeMedium, 9500},
		{core.MoveDistance, core.SizeLarge, 14500},
		{core.MoveDistance, core.SizeOffice, 20000},
		{core.MoveInternational, core.SizeSmall, 12000},
		{core.MoveInternational, core.SizeMedium, 18000},
		{core.MoveInternational, core.SizeLarge, 25000},
		{core.MoveInternational, core.SizeOffice, 35000},
	}
	for _, tt := range tests {
		t.Run(string(tt.moveType)+"/"+string(tt.moveSize), func(t *testing.T) {
			assert.Equal(t, tt.want, core.BasePrice(tt.moveType, tt.moveSize))
		})
	}
}

func TestBasePrice_UnknownCombinationDegradesToZero(t *testing.T) {
	// Historical behavior: a missing rate prices at zero instead of failing.
	assert.Equal(t, int64(0), core.BasePrice("intergalactic", core.SizeSmall))
	assert.Equal(t, int64(0), core.BasePrice(core.MoveLocal, "gigantic"))
}

func TestBasePriceStrict_UnknownCombination(t *testing.T) {
	_, err := core.BasePriceStrict("intergalactic", core.SizeSmall)
	assert.ErrorIs(t, err, core.ErrUnknownRate)

	price, err := core.BasePriceStrict(core.MoveLocal, core.SizeMedium)
	require.NoError(t, err)
	assert.Equal(t, int64(5500), price)
}

func TestFloorSurcharge(t *testing.T) {
	tests := []struct {
		name     string
		floors   int
		elevator bool
		want     int64
	}{
		{"ground floor no elevator", 0, false, 0},
		{"ground floor with elevator", 0, true, 0},
		{"two floors no elevator", 2, false, 1000},
		{"two floors with elevator", 2, true, 0},
		{"fifth floor no elevator", 5, false, 2500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, core.FloorSurcharge(tt.floors, tt.elevator))
		})
	}
}

func TestComputeQuote_LocalMediumSecondFloorNoElevator(t *testing.T) {
	spec := core.MoveSpecification{
		MoveType: core.MoveLocal,
		MoveSize: core.SizeMedium,
		Start:    core.Location{Floors: 2, Elevator: false},
		End:      core.Location{Floors: 0},
	}

	quote := core.ComputeQuote(spec, nil, nil)

	assert.Equal(t, int64(6500), quote.BasePrice)
	assert.Equal(t, int64(1000), quote.Surcharges.FloorsStart)
	assert.Equal(t, int64(0), quote.Surcharges.FloorsEnd)
	assert.Equal(t, int64(0), quote.AdditionalServicesTotal)
	assert.Equal(t, int64(6500), quote.TotalPrice)
}

func TestComputeQuote_WithAdditionalServices(t *testing.T) {
	spec := core.MoveSpecification{
		MoveType: core.MoveLocal,
		MoveSize: core.SizeMedium,
		Start:    core.Location{Floors: 2, Elevator: false},
	}
	services := []core.SelectedService{
		{ServiceID: "packing", Quantity: 1, Selected: true},
		{ServiceID: "cleaning", Quantity: 1, Selected: true},
		{ServiceID: "piano", Quantity: 1, Selected: false}, // unselected contributes nothing
	}

	quote := core.ComputeQuote(spec, services, nil)

	assert.Equal(t, int64(3500), quote.AdditionalServicesTotal)
	assert.Equal(t, int64(10000), quote.TotalPrice)
}

func TestComputeQuote_Idempotent(t *testing.T) {
	spec := core.MoveSpecification{
		MoveType: core.MoveDistance,
		MoveSize: core.SizeLarge,
		Start:    core.Location{Floors: 3, Elevator: false, ParkingDistance: 40},
		End:      core.Location{Floors: 1, Elevator: true},
	}
	services := []core.SelectedService{
		{ServiceID: "packing", Quantity: 2, Selected: true},
		{ServiceID: "storage", Quantity: 3, Selected: true},
	}

	first := core.ComputeQuote(spec, services, nil)
	second := core.ComputeQuote(spec, services, nil)
	assert.Equal(t, first, second)
}

func TestComputeQuote_MonotonicInQuantity(t *testing.T) {
	spec := core.MoveSpecification{MoveType: core.MoveLocal, MoveSize: core.SizeSmall}

	for qty := int64(1); qty <= 10; qty++ {
		lower := core.ComputeQuote(spec, []core.SelectedService{
			{ServiceID: "assembly", Quantity: qty, Selected: true},
		}, nil)
		higher := core.ComputeQuote(spec, []core.SelectedService{
			{ServiceID: "assembly", Quantity: qty + 1, Selected: true},
		}, nil)
		assert.GreaterOrEqual(t, higher.TotalPrice, lower.TotalPrice)
	}
}

func TestComputeQuote_ParkingDistanceNotPriced(t *testing.T) {
	base := core.MoveSpecification{MoveType: core.MoveLocal, MoveSize: core.SizeMedium}
	far := base
	far.Start.ParkingDistance = 200
	far.End.ParkingDistance = 150

	assert.Equal(t, core.ComputeQuote(base, nil, nil), core.ComputeQuote(far, nil, nil))
}

func TestMoveSpecification_Validate(t *testing.T) {
	tests := []struct {
		name      string
		spec      core.MoveSpecification
		expectErr bool
	}{
		{
			name: "valid",
			spec: core.MoveSpecification{MoveType: core.MoveLocal, MoveSize: core.SizeMedium},
		},
		{
			name:      "unknown move type",
			spec:      core.MoveSpecification{MoveType: "teleport", MoveSize: core.SizeMedium},
			expectErr: true,
		},
		{
			name:      "unknown move size",
			spec:      core.MoveSpecification{MoveType: core.MoveLocal, MoveSize: "huge"},
			expectErr: true,
		},
		{
			name: "negative floors",
			spec: core.MoveSpecification{
				MoveType: core.MoveLocal, MoveSize: core.SizeMedium,
				Start: core.Location{Floors: -1},
			},
			expectErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMoveSpecification_Normalize(t *testing.T) {
	spec := core.MoveSpecification{MoveType: " Local ", MoveSize: "MEDIUM"}
	spec.Normalize()
	assert.Equal(t, core.MoveLocal, spec.MoveType)
	assert.Equal(t, core.SizeMedium, spec.MoveSize)
	assert.NoError(t, spec.Validate())
}

func TestValidateSelectedServices(t *testing.T) {
	tests := []struct {
		name      string
		services  []core.SelectedService
		expectErr bool
	}{
		{
			name: "valid selection",
			services: []core.SelectedService{
				{ServiceID: "packing", Quantity: 1, Selected: true},
				{ServiceID: "cleaning", Quantity: 2, Selected: true},
			},
		},
		{
			name: "duplicate id",
			services: []core.SelectedService{
				{ServiceID: "packing", Quantity: 1, Selected: true},
				{ServiceID: "packing", Quantity: 2, Selected: false},
			},
			expectErr: true,
		},
		{
			name:      "unknown service",
			services:  []core.SelectedService{{ServiceID: "helicopter", Quantity: 1, Selected: true}},
			expectErr: true,
		},
		{
			name:      "zero quantity",
			services:  []core.SelectedService{{ServiceID: "packing", Quantity: 0, Selected: true}},
			expectErr: true,
		},
		{
			name:     "quantity at the ceiling",
			services: []core.SelectedService{{ServiceID: "packing", Quantity: 1000, Selected: true}},
		},
		{
			name:      "quantity above the ceiling",
			services:  []core.SelectedService{{ServiceID: "packing", Quantity: 1001, Selected: true}},
			expectErr: true,
		},
		{
			name:      "quantity large enough to overflow the total",
			services:  []core.SelectedService{{ServiceID: "packing", Quantity: 1 << 53, Selected: true}},
			expectErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := core.ValidateSelectedServices(tt.services, nil)
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

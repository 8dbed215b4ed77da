package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDraftNormalize(t *testing.T) {
	d := QuoteRequestDraft{
		MoveType:   "  Local ",
		MoveSize:   "MEDIUM",
		ServiceIDs: []string{" Packing", "", "cleaning "},
	}
	d.Normalize()

	assert.Equal(t, "local", d.MoveType)
	assert.Equal(t, "medium", d.MoveSize)
	assert.Equal(t, []string{"packing", "cleaning"}, d.ServiceIDs)
}

func TestDraftValidate(t *testing.T) {
	valid := QuoteRequestDraft{
		MoveType:   "local",
		MoveSize:   "medium",
		ServiceIDs: []string{"packing", "piano"},
	}
	require.NoError(t, valid.Validate())

	unknownService := valid
	unknownService.ServiceIDs = []string{"helicopter"}
	assert.Error(t, unknownService.Validate())

	badSize := valid
	badSize.MoveSize = "gigantic"
	assert.Error(t, badSize.Validate())

	// A clarification draft skips form validation but must carry a question.
	clarify := QuoteRequestDraft{NeedsClarification: true, ClarificationMessage: "Hur många rum har bostaden?"}
	assert.NoError(t, clarify.Validate())
	clarify.ClarificationMessage = ""
	assert.Error(t, clarify.Validate())
}

func TestDraftConversions(t *testing.T) {
	d := QuoteRequestDraft{
		MoveType:      "distance",
		MoveSize:      "large",
		StartFloors:   3,
		StartElevator: true,
		EndFloors:     1,
		ServiceIDs:    []string{"packing", "cleaning"},
	}

	move := d.MoveSpecification()
	require.NoError(t, move.Validate())
	assert.Equal(t, 3, move.Start.Floors)
	assert.True(t, move.Start.Elevator)

	services := d.SelectedServices()
	require.Len(t, services, 2)
	for _, s := range services {
		assert.True(t, s.Selected)
		assert.EqualValues(t, 1, s.Quantity)
	}
}

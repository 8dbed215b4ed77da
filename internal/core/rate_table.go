package core

import (
	"errors"
	"fmt"
)

// ErrUnknownRate is returned by BasePriceStrict for a move type/size
// combination missing from the rate table.
var ErrUnknownRate = errors.New("no base rate for move type/size combination")

// baseRates is the base price table in whole SEK, keyed by move type then size.
// These figures are contractual: they must match the published price list.
var baseRates = map[MoveType]map[MoveSize]int64{
	MoveLocal: {
		SizeSmall:  3500,
		SizeMedium: 5500,
		SizeLarge:  8500,
		SizeOffice: 12000,
	},
	MoveDistance: {
		SizeSmall:  6500,
		SizeMedium: 9500,
		SizeLarge:  14500,
		SizeOffice: 20000,
	},
	MoveInternational: {
		SizeSmall:  12000,
		SizeMedium: 18000,
		SizeLarge:  25000,
		SizeOffice: 35000,
	},
}

// BasePrice returns the base rate in SEK for a move type and size.
// An unknown combination returns 0: historically a missing rate degrades the
// quote to "free" instead of failing. Callers that want a hard failure use
// BasePriceStrict. Don't change this default without product sign-off;
// the public form relies on never erroring here.
func BasePrice(moveType MoveType, moveSize MoveSize) int64 {
	return baseRates[moveType][moveSize]
}

// BasePriceStrict is the checked variant of BasePrice. It returns ErrUnknownRate
// instead of silently pricing an unknown combination at zero.
func BasePriceStrict(moveType MoveType, moveSize MoveSize) (int64, error) {
	sizes, ok := baseRates[moveType]
	if !ok {
		return 0, fmt.Errorf("%w: %s/%s", ErrUnknownRate, moveType, moveSize)
	}
	price, ok := sizes[moveSize]
	if !ok {
		return 0, fmt.Errorf("%w: %s/%s", ErrUnknownRate, moveType, moveSize)
	}
	return price, nil
}

// defaultCatalog is the built-in additional-service catalog. The database may
// override individual entries (see CatalogService resolution); these are the
// deploy-time defaults. Prices in whole SEK, all RUT-eligible.
var defaultCatalog = []CatalogService{
	{ID: "packing", Name: "Packhjälp", UnitPrice: 1500, RutEligible: true, Category: "labor"},
	{ID: "unpacking", Name: "Uppackning", UnitPrice: 1500, RutEligible: true, Category: "labor"},
	{ID: "cleaning", Name: "Flyttstädning", UnitPrice: 2000, RutEligible: true, Category: "cleaning"},
	{ID: "storage", Name: "Magasinering", UnitPrice: 1000, RutEligible: true, Category: "storage"},
	{ID: "piano", Name: "Pianoflytt", UnitPrice: 2500, RutEligible: true, Category: "heavy"},
	{ID: "assembly", Name: "Möbelmontering", UnitPrice: 1200, RutEligible: true, Category: "labor"},
}

// DefaultCatalog returns a copy of the built-in service catalog.
func DefaultCatalog() []CatalogService {
	out := make([]CatalogService, len(defaultCatalog))
	copy(out, defaultCatalog)
	return out
}

// LookupCatalogService returns the built-in catalog entry for id, if any.
func LookupCatalogService(id string) (CatalogService, bool) {
	for _, s := range defaultCatalog {
		if s.ID == id {
			return s, true
		}
	}
	return CatalogService{}, false
}

package order

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ShippingDetails is the delivery address captured at checkout
type ShippingDetails struct {
	Address       string `json:"address"`
	City          string `json:"city"`
	Zip           string `json:"zip"`
	Phone         string `json:"phone,omitempty"`
	Notes         string `json:"notes,omitempty"`
	LocalDelivery bool   `json:"local_delivery,omitempty"`
}

// HasAddress reports whether the address, city and zip are all present
func (s ShippingDetails) HasAddress() bool {
	return strings.TrimSpace(s.Address) != "" &&
		strings.TrimSpace(s.City) != "" &&
		strings.TrimSpace(s.Zip) != ""
}

// ShippingPolicy computes delivery cost from the cart subtotal and the address
type ShippingPolicy struct {
	FreeThreshold   decimal.Decimal
	LocalRate       decimal.Decimal
	StandardRate    decimal.Decimal
	LocalCityMarker string
	LocalZipPrefix  string
}

// DefaultShippingPolicy returns the shop's rates: free from 99 EUR, 4.99 for
// local delivery in the Teramo province, 9.90 otherwise.
func DefaultShippingPolicy() ShippingPolicy {
	return ShippingPolicy{
		FreeThreshold:   decimal.NewFromInt(99),
		LocalRate:       decimal.RequireFromString("4.99"),
		StandardRate:    decimal.RequireFromString("9.90"),
		LocalCityMarker: "teramo",
		LocalZipPrefix:  "64",
	}
}

// IsLocalEligible reports whether the address qualifies for local delivery
func (p ShippingPolicy) IsLocalEligible(details ShippingDetails) bool {
	city := strings.ToLower(strings.TrimSpace(details.City))
	zip := strings.TrimSpace(details.Zip)
	if p.LocalCityMarker != "" && strings.Contains(city, strings.ToLower(p.LocalCityMarker)) {
		return true
	}
	return p.LocalZipPrefix != "" && strings.HasPrefix(zip, p.LocalZipPrefix)
}

// Quote returns the shipping cost for the cart. Service-only carts ship free.
func (p ShippingPolicy) Quote(cart CartSnapshot, details ShippingDetails) decimal.Decimal {
	if !cart.HasPhysicalItems() {
		return decimal.Zero
	}
	if cart.ItemsTotal().GreaterThanOrEqual(p.FreeThreshold) {
		return decimal.Zero
	}
	if details.LocalDelivery && p.IsLocalEligible(details) {
		return p.LocalRate
	}
	return p.StandardRate
}

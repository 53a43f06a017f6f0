package model

import (
	"errors"
	"testing"
)

func TestEffectiveAmountPrefersDiscount(t *testing.T) {
	p := LabTestPricing{Price: "500", DiscountPrice: "399"}
	got, err := p.EffectiveAmount()
	if err != nil {
		t.Fatalf("EffectiveAmount: %v", err)
	}
	if got != 399 {
		t.Fatalf("expected 399, got %v", got)
	}
}

func TestEffectiveAmountFallsBackToPrice(t *testing.T) {
	cases := []struct {
		name     string
		discount string
	}{
		{"empty discount", ""},
		{"garbage discount", "call us"},
		{"negative discount", "-10"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := LabTestPricing{Price: "250.50", DiscountPrice: tc.discount}
			got, err := p.EffectiveAmount()
			if err != nil {
				t.Fatalf("EffectiveAmount: %v", err)
			}
			if got != 250.50 {
				t.Fatalf("expected 250.50, got %v", got)
			}
		})
	}
}

func TestEffectiveAmountRejectsUnusableEntry(t *testing.T) {
	for _, p := range []LabTestPricing{
		{Price: "", DiscountPrice: ""},
		{Price: "free", DiscountPrice: "soon"},
		{Price: "-5"},
	} {
		if _, err := p.EffectiveAmount(); !errors.Is(err, ErrInvalidPrice) {
			t.Fatalf("price=%q discount=%q: expected ErrInvalidPrice, got %v", p.Price, p.DiscountPrice, err)
		}
	}
}

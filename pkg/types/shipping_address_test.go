package types

import "testing"

func TestShippingAddressValidate(t *testing.T) {
	addr := ShippingAddress{
		RecipientName: "Ada",
		Line1:         "1 Main St",
		City:          "Springfield",
		Region:        "il",
		PostalCode:    "62701",
	}
	if err := addr.Validate(); err != nil {
		t.Fatalf("expected valid address, got %v", err)
	}

	addr.City = "  "
	if err := addr.Validate(); err == nil {
		t.Fatal("expected missing city to fail")
	}
}

func TestShippingAddressNormalized(t *testing.T) {
	blank := "   "
	addr := ShippingAddress{RecipientName: " Ada ", Region: " il ", Line2: &blank}
	got := addr.Normalized()
	if got.Region != "IL" || got.Country != "US" || got.RecipientName != "Ada" {
		t.Fatalf("unexpected normalization %+v", got)
	}
	if got.Line2 != nil {
		t.Fatalf("expected blank line2 to be dropped")
	}
}

func TestShippingAddressScanRoundTrip(t *testing.T) {
	var addr ShippingAddress
	if err := addr.Scan([]byte(`{"recipient_name":"Ada","city":"Springfield","region":"IL"}`)); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if addr.City != "Springfield" || addr.Region != "IL" {
		t.Fatalf("unexpected scan result %+v", addr)
	}
	if err := addr.Scan(42); err == nil {
		t.Fatal("expected unsupported scan type error")
	}
}

func TestShippingAddressValueScanRoundTrip(t *testing.T) {
	line2 := "Apt 4"
	want := ShippingAddress{RecipientName: "Ada", Line1: "1 Main St", Line2: &line2, City: "Springfield", Region: "IL", PostalCode: "62701", Country: "US"}
	stored, err := want.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}
	for _, raw := range []any{stored, string(stored.([]byte))} {
		var got ShippingAddress
		if err := got.Scan(raw); err != nil {
			t.Fatalf("scan %T: %v", raw, err)
		}
		if got.Line2 == nil || *got.Line2 != line2 || got.PostalCode != want.PostalCode || got.Country != "US" {
			t.Fatalf("round trip from %T lost fields: %+v", raw, got)
		}
	}
	var cleared ShippingAddress = want
	if err := cleared.Scan(nil); err != nil || cleared.City != "" {
		t.Fatalf("expected nil scan to reset, got %+v (%v)", cleared, err)
	}
}

package handlers

import "testing"

func strp(s string) *string { return &s }

func TestResolvePrice(t *testing.T) {
	if p, ok := resolvePrice("25.00", "30.00", false, nil); !ok || p != "25.00" {
		t.Fatalf("stored price must survive an edit without an override, got %q ok=%v", p, ok)
	}
	if p, ok := resolvePrice("25.00", "30.00", true, nil); !ok || p != "30.00" {
		t.Fatalf("a service change must adopt the new service's price, got %q ok=%v", p, ok)
	}
	if p, ok := resolvePrice("25.00", "30.00", true, strp("19.50")); !ok || p != "19.50" {
		t.Fatalf("an explicit override must win, got %q ok=%v", p, ok)
	}
	if p, ok := resolvePrice("25.00", "25.00", false, strp("0")); !ok || p != "0" {
		t.Fatalf("a free override must be accepted, got %q ok=%v", p, ok)
	}
	if _, ok := resolvePrice("25.00", "30.00", false, strp("-1")); ok {
		t.Fatal("negative override must be rejected")
	}
	if _, ok := resolvePrice("25.00", "30.00", false, strp("gratis")); ok {
		t.Fatal("non-numeric override must be rejected")
	}
}

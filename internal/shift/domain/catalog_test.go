package shift

import "testing"

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()
	if len(c.Fuels) != 3 || len(c.Lubricants) != 20 || len(c.PaymentMethods) != 7 {
		t.Fatalf("unexpected catalog sizes: fuels=%d lubricants=%d methods=%d", len(c.Fuels), len(c.Lubricants), len(c.PaymentMethods))
	}
	if len(c.Hoses) != 96 {
		t.Fatalf("expected 96 hoses, got %d", len(c.Hoses))
	}
	if !c.Lubricants[19].Price.Equal(dec(t, "2050")) {
		t.Fatalf("last lubricant price: got=%s want=2050", c.Lubricants[19].Price)
	}
	for _, m := range c.PaymentMethods {
		if !m.Category.Valid() {
			t.Fatalf("invalid category %q for %s", m.Category, m.Name)
		}
	}

	hoses := c.ResolvePrices()
	last := hoses[len(hoses)-1]
	if last.DispenserNo != 16 || last.HoseNo != 6 || last.ProductName != "Gasoil" {
		t.Fatalf("unexpected last hose: %+v", last)
	}
	if !last.Price.Equal(dec(t, "221.60")) || !last.PreviousReading.Equal(dec(t, "16000")) {
		t.Fatalf("unexpected last hose price or baseline: %+v", last)
	}
	if groups := BuildDispenserGroups(hoses); len(groups) != 16 {
		t.Fatalf("expected 16 dispensers, got %d", len(groups))
	}
}

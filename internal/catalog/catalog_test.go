package catalog

import (
	"errors"
	"testing"
)

func TestLookup_SF(t *testing.T) {
	places, err := Lookup("SF")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if len(places) < 4 {
		t.Fatalf("len(places) = %d, want at least 4", len(places))
	}

	seen := map[string]bool{}
	for _, p := range places {
		if seen[p.ID] {
			t.Errorf("duplicate id %s", p.ID)
		}
		seen[p.ID] = true
		if p.PriceTier < 1 || p.PriceTier > 4 {
			t.Errorf("%s: price tier %d out of range", p.ID, p.PriceTier)
		}
		if p.Location == nil {
			t.Errorf("%s: missing location", p.ID)
		}
	}
	for _, id := range []string{"p_1", "p_3", "p_4"} {
		if !seen[id] {
			t.Errorf("catalog is missing %s", id)
		}
	}
}

func TestLookup_ReturnsCopy(t *testing.T) {
	a, _ := Lookup("sf")
	a[0].Name = "changed"
	b, _ := Lookup("sf")
	if b[0].Name == "changed" {
		t.Error("Lookup shares its backing array")
	}
}

func TestLookup_UnknownCity(t *testing.T) {
	if _, err := Lookup("atlantis"); !errors.Is(err, ErrUnknownCity) {
		t.Errorf("err = %v, want ErrUnknownCity", err)
	}
}

func TestPlace(t *testing.T) {
	p, ok := Place("p_3")
	if !ok || p.Name != "Dolores Park" {
		t.Errorf("Place(p_3) = %+v, %v", p, ok)
	}
	if _, ok := Place("nope"); ok {
		t.Error("Place(nope) found an entry")
	}
}

func TestCities(t *testing.T) {
	got := Cities()
	if len(got) == 0 || got[0] != "sf" {
		t.Errorf("Cities() = %v", got)
	}
}

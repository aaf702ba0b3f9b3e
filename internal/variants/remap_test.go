package variants

import (
	"testing"

	"github.com/shopspring/decimal"

	"cedra_admin/internal/models"
)

func TestRemapAfterAttributeReorder(t *testing.T) {
	color := attr("color", "Red", "Blue")
	size := attr("size", "S", "M")
	price := decimal.NewFromInt(1)

	old := Build([]models.Attribute{color, size}, price)
	regenerated := Build([]models.Attribute{size, color}, price)

	// Même ensemble de tuples, mais Key dépend de l'ordre des attributs.
	if len(Remap(old, regenerated)) != 0 {
		t.Fatalf("expected no match when attribute order changes the tuple shape")
	}
	if Stable(old, regenerated) {
		t.Fatalf("expected reorder to be reported as unstable")
	}
}

func TestRemapAfterOptionAdded(t *testing.T) {
	price := decimal.NewFromInt(1)
	old := Build([]models.Attribute{attr("color", "Red", "Blue"), attr("size", "S", "M")}, price)
	regenerated := Build([]models.Attribute{attr("color", "Red", "Green", "Blue"), attr("size", "S", "M")}, price)

	m := Remap(old, regenerated)
	want := map[int]int{0: 0, 1: 1, 2: 4, 3: 5}
	for i, j := range want {
		if m[i] != j {
			t.Errorf("index %d: expected %d, got %d", i, j, m[i])
		}
	}
	if Stable(old, regenerated) {
		t.Errorf("expected unstable remap")
	}
	if !Stable(old, old) {
		t.Errorf("identical lists must be stable")
	}
}

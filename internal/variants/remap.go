package variants

import (
	"strings"

	"cedra_admin/internal/models"
)

// Key renvoie l'empreinte canonique d'un tuple ("color=red|size=s").
func Key(values []models.AttributeValue) string {
	parts := make([]string, 0, len(values))
	for _, av := range values {
		parts = append(parts, av.AttributeID+"="+av.Value)
	}
	return strings.Join(parts, "|")
}

// Remap associe chaque index de l'ancienne liste à l'index de la variante de
// même tuple dans la nouvelle. Les index dont le tuple a disparu sont absents.
//
// Les allocations et les prix restent adressés par position ; Remap sert
// seulement à détecter (et corriger) un décalage après régénération.
func Remap(old, regenerated []models.Variant) map[int]int {
	byKey := make(map[string]int, len(regenerated))
	for i, v := range regenerated {
		byKey[Key(v.AttributeValues)] = i
	}

	out := make(map[int]int, len(old))
	for i, v := range old {
		if j, ok := byKey[Key(v.AttributeValues)]; ok {
			out[i] = j
		}
	}
	return out
}

// Stable indique si la régénération conserve toutes les positions.
func Stable(old, regenerated []models.Variant) bool {
	m := Remap(old, regenerated)
	if len(m) != len(old) {
		return false
	}
	for i, j := range m {
		if i != j {
			return false
		}
	}
	return true
}

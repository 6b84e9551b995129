// path: models/enums.go
package models

import (
	"fmt"
	"strings"
)

// WasteType is the closed set of litter categories shared by reporting and display.
type WasteType string

const (
	WastePlastic    WasteType = "plastic"
	WasteGlass      WasteType = "glass"
	WastePaper      WasteType = "paper"
	WasteMetal      WasteType = "metal"
	WasteOrganic    WasteType = "organic"
	WasteElectronic WasteType = "electronic"
	WasteTextile    WasteType = "textile"
	WasteHazardous  WasteType = "hazardous"
	WasteOther      WasteType = "other"
)

var wasteTypes = []WasteType{
	WastePlastic, WasteGlass, WastePaper, WasteMetal, WasteOrganic,
	WasteElectronic, WasteTextile, WasteHazardous, WasteOther,
}

func WasteTypes() []WasteType { return append([]WasteType(nil), wasteTypes...) }

func (t WasteType) Valid() bool {
	for _, w := range wasteTypes {
		if t == w {
			return true
		}
	}
	return false
}

func ParseWasteType(s string) (WasteType, error) {
	t := WasteType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown waste type %q", s)
	}
	return t, nil
}

// ParseWasteTypes parses a comma-separated list, dropping duplicates.
func ParseWasteTypes(values []string) ([]WasteType, error) {
	seen := map[WasteType]bool{}
	var out []WasteType
	for _, raw := range values {
		for _, part := range strings.Split(raw, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			t, err := ParseWasteType(part)
			if err != nil {
				return nil, err
			}
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	return out, nil
}

// Quantity is an ordinal estimate of how much litter is at a spot.
type Quantity int

const (
	QuantityHandful Quantity = iota + 1
	QuantityBag
	QuantitySeveralBags
	QuantityPile
)

var quantityNames = map[Quantity]string{
	QuantityHandful:     "handful",
	QuantityBag:         "bag",
	QuantitySeveralBags: "several_bags",
	QuantityPile:        "pile",
}

func (q Quantity) Valid() bool {
	_, ok := quantityNames[q]
	return ok
}

func (q Quantity) String() string {
	if n, ok := quantityNames[q]; ok {
		return n
	}
	return fmt.Sprintf("quantity(%d)", int(q))
}

// ParseQuantity accepts either the name or the ordinal.
func ParseQuantity(s string) (Quantity, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for q, name := range quantityNames {
		if s == name || s == fmt.Sprint(int(q)) {
			return q, nil
		}
	}
	return 0, fmt.Errorf("unknown quantity %q", s)
}

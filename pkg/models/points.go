package models

import "fmt"

// PointCount is the fixed number of click points the automation sequence uses.
const PointCount = 6

// ClickPoint is a named absolute screen coordinate.
type ClickPoint struct {
	Name string `json:"name" yaml:"name"`
	X    int32  `json:"x" yaml:"x"`
	Y    int32  `json:"y" yaml:"y"`
}

func (p ClickPoint) String() string {
	return fmt.Sprintf("%s (%d, %d)", p.Name, p.X, p.Y)
}

// DefaultPoints returns a fresh copy of the factory click layout.
func DefaultPoints() []ClickPoint {
	return []ClickPoint{
		{Name: "Step 1", X: 3514, Y: 1640},
		{Name: "Step 2 (date field)", X: 1775, Y: 596},
		{Name: "Step 3", X: 1474, Y: 1649},
		{Name: "Step 5", X: 2875, Y: 1640},
		{Name: "Step 7", X: 2674, Y: 1640},
		{Name: "Step 8", X: 2066, Y: 1100},
	}
}

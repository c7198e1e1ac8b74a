package core

// Totals are the month's running sums. Income and Expense are never negative.
type Totals struct {
	Income  float64
	Expense float64
	Net     float64
}

// CategoryAmount represents an expense magnitude aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount float64
}

// Breakdown maps category names to summed expense magnitude. Entries keep
// the order in which a category was first seen.
type Breakdown []CategoryAmount

// Get returns the amount recorded for name.
func (b Breakdown) Get(name string) (float64, bool) {
	for _, c := range b {
		if c.Name == name {
			return c.Amount, true
		}
	}
	return 0, false
}

func (b Breakdown) Len() int { return len(b) }

// Total sums every category.
func (b Breakdown) Total() float64 {
	var sum float64
	for _, c := range b {
		sum += c.Amount
	}
	return sum
}

// AsMap is a convenience for callers that do not care about order.
func (b Breakdown) AsMap() map[string]float64 {
	m := make(map[string]float64, len(b))
	for _, c := range b {
		m[c.Name] = c.Amount
	}
	return m
}

// Slice is one arc of the breakdown ring. Angles are in radians.
type Slice struct {
	Name       string
	Amount     float64
	Color      string
	StartAngle float64
	EndAngle   float64
}

// Sweep is the angular width of the slice.
func (s Slice) Sweep() float64 {
	return s.EndAngle - s.StartAngle
}

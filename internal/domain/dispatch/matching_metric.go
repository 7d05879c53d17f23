package dispatch

// MatchingMetric describes one matching tick: problem size, outcome, and the
// wall-clock cost of producing it.
type MatchingMetric struct {
	Couriers    int
	Orders      int
	Prospects   int
	Routes      int
	Variables   int
	Constraints int
	Matches     int

	RoutingTime  float64
	MatchingTime float64
}

// Package vehicle holds the data model derived by the ETL pipeline: a
// vehicle's position history and its latest computed snapshot.
package vehicle

// VehicleFilter indexes the three dashboard navigation filters.
type VehicleFilter int

const (
	FilterAll VehicleFilter = iota
	FilterCollisionRisk
	FilterAboveSpeedLimit

	FilterCount
)

// Position is one observed (lane, distance) pair at a given cycle.
type Position struct {
	Lane     int
	Distance int
	Cycle    uint64
}

// Vehicle is the latest derived snapshot for one plate.
//
// Unenriched vehicles have Name == Model == "" and Year == -1.
// Speed == -1 and Risk == -1 mean "insufficient samples"; Acceleration's
// sentinel is 0, not -1 (see SPEC_FULL.md §4.7 / spec.md §3).
type Vehicle struct {
	Name         string
	Model        string
	Year         int // -1: unenriched
	HighwayIndex int // -1: unknown
	LastPos      Position
	Speed        float64 // -1: insufficient samples
	Acceleration float64 // 0: insufficient samples
	Risk         float64 // -1: undefined
	Flags        [FilterCount]bool
}

// NewVehicle returns a Vehicle in its just-created, unenriched state.
func NewVehicle() Vehicle {
	return Vehicle{
		Year:         -1,
		HighwayIndex: -1,
		Speed:        -1,
		Risk:         -1,
		Flags:        [FilterCount]bool{FilterAll: true},
	}
}

// Enriched reports whether the owner/model/year lookup has completed.
func (v Vehicle) Enriched() bool {
	return v.Year >= 0
}

// Data is the append-only position history plus the latest snapshot for
// one plate. Positions are appended only by the single worker that owns
// that plate within a batch (spec.md invariant I3), so no lock is
// required for the append itself; the surrounding VehicleIndex entry is
// only ever handed to that one worker per batch.
type Data struct {
	Positions []Position
	Vehicle   Vehicle
}

// NewData returns a freshly created, empty vehicle record.
func NewData() *Data {
	return &Data{Vehicle: NewVehicle()}
}

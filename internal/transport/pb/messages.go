package pb

// VehicleMessage mirrors RawVehicle on the wire.
type VehicleMessage struct {
	Plate     string `json:"plate"`
	Lane      int32  `json:"lane"`
	Direction int32  `json:"direction"`
	Distance  int32  `json:"distance"`
}

// CycleMessage mirrors SimulationCycle on the wire.
type CycleMessage struct {
	HighwayName     string           `json:"highway_name"`
	HighwayLanes    int32            `json:"highway_lanes"`
	HighwaySpeedLim float64          `json:"highway_speed_limit"`
	Cycle           uint64           `json:"cycle"`
	Timestamp       float64          `json:"timestamp"`
	Vehicles        []VehicleMessage `json:"vehicles"`
}

// Empty is ReportCycle's response, matching the Empty convention of
// google.golang.org/protobuf/types/known/emptypb without taking on the
// well-known-types dependency for a single unused field set.
type Empty struct{}

package etl

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/juanbelieni/highwaysim/internal/vehicle"
)

// transform runs the Transform stage (spec.md §4.6) over each worker's
// modified list from Extract, computing kinematics and risk, and
// aggregates vehicle_counts (I4).
func (r *Runner) transform(states []*workerState) Counts {
	var all, collision, speeding int64

	var wg sync.WaitGroup
	wg.Add(len(states))
	for _, st := range states {
		go func(st *workerState) {
			defer wg.Done()
			st.processed = st.processed[:0]
			for _, k := range st.modified {
				data, ok := r.Index.Find(k)
				if !ok {
					continue
				}
				hw := r.Reg.Get(data.Vehicle.HighwayIndex)
				v := r.computeVehicle(data, hw.SpeedLimit)
				data.Vehicle = v
				st.processed = append(st.processed, ProcessedVehicle{Plate: k, Vehicle: v})

				atomic.AddInt64(&all, 1)
				if v.Flags[vehicle.FilterCollisionRisk] {
					atomic.AddInt64(&collision, 1)
				}
				if v.Flags[vehicle.FilterAboveSpeedLimit] {
					atomic.AddInt64(&speeding, 1)
				}
			}
		}(st)
	}
	wg.Wait()

	return Counts{All: int(all), Collision: int(collision), Speeding: int(speeding)}
}

// computeVehicle implements spec.md §4.6's kinematics/risk formulas for
// one plate's current history, returning the updated snapshot.
func (r *Runner) computeVehicle(data *vehicle.Data, speedLimit float64) vehicle.Vehicle {
	v := data.Vehicle
	positions := data.Positions
	cycles := r.Reg.Get(v.HighwayIndex).Cycles
	l := len(positions)
	c := len(cycles)
	prevSpeed := v.Speed

	switch {
	case l <= 1:
		v.Speed = -1
		v.Acceleration = 0
		v.Risk = -1
	case l == 2:
		v.Speed = normalizeZero(speedOverCycles(positions, cycles, l, c))
		v.Acceleration = 0
		v.Risk = -1
	case l == 3:
		v.Speed = normalizeZero(speedOverCycles(positions, cycles, l, c))
		v.Acceleration = normalizeZero(accelerationDelta(v.Speed, prevSpeed, cycles, c))
		v.Risk = -1
	default:
		v.Speed = normalizeZero(speedOverCycles(positions, cycles, l, c))
		v.Acceleration = normalizeZero(accelerationDelta(v.Speed, prevSpeed, cycles, c))
		v.Risk = logisticRisk(v.Speed, v.Acceleration, speedLimit)
	}

	v.Flags[vehicle.FilterAll] = true
	v.Flags[vehicle.FilterCollisionRisk] = v.Risk >= 0.5
	v.Flags[vehicle.FilterAboveSpeedLimit] = v.Speed > speedLimit
	return v
}

func speedOverCycles(positions []vehicle.Position, cycles []uint64, l, c int) float64 {
	dd := float64(positions[l-1].Distance - positions[l-2].Distance)
	dc := float64(cycles[c-1] - cycles[c-2])
	return dd / dc
}

func accelerationDelta(speed, prevSpeed float64, cycles []uint64, c int) float64 {
	dc := float64(cycles[c-1] - cycles[c-2])
	return (speed - prevSpeed) / dc
}

// logisticRisk implements spec.md §4.6's risk transform for L>=4:
// x = 3*(speed + speed*|accel|)/speed_limit - 5; risk = 1/(1+e^-x).
func logisticRisk(speed, acceleration, speedLimit float64) float64 {
	x := 3*(speed+speed*math.Abs(acceleration))/speedLimit - 5
	return 1 / (1 + math.Exp(-x))
}

// normalizeZero turns a negative zero into a positive zero so that
// byte-equal outputs are reproducible across platforms (spec.md §9).
func normalizeZero(f float64) float64 {
	if f == 0 {
		return 0
	}
	return f
}

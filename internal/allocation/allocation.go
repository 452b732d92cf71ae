// Package allocation assigns examination seats to departments.
//
// Seats are filled row-major (floor, room, seat). Departments are ordered once
// by descending headcount, ties keeping input order, and each seat goes to the
// first department in that order that still has students left. The order is
// not recomputed as counts drop, so every department occupies one contiguous
// run of seats.
package allocation

import (
	"errors"
	"fmt"
	"sort"
)

// MaxCapacity bounds the grid so a single request cannot allocate unbounded memory.
const MaxCapacity = 100_000

var (
	ErrCapacityExceeded = errors.New("allocation: demand exceeds capacity")
	ErrInvalidInput     = errors.New("allocation: invalid input")
)

// Departments lists the departments an exam sitting may draw from.
var Departments = []string{"CSE(AI&ML)", "IT", "ME", "ECE", "Civil", "EEE"}

// IsDepartment reports whether name is a known department.
func IsDepartment(name string) bool {
	for _, d := range Departments {
		if d == name {
			return true
		}
	}
	return false
}

// RoomGrid is the seating geometry of the exam venue.
type RoomGrid struct {
	Floors        int `json:"floors"`
	RoomsPerFloor int `json:"roomsPerFloor"`
	SeatsPerRoom  int `json:"seatsPerRoom"`
}

// Capacity is the number of seats in the grid.
func (g RoomGrid) Capacity() int {
	return g.Floors * g.RoomsPerFloor * g.SeatsPerRoom
}

// Validate rejects negative or oversized geometry.
func (g RoomGrid) Validate() error {
	if g.Floors < 0 || g.RoomsPerFloor < 0 || g.SeatsPerRoom < 0 {
		return fmt.Errorf("%w: grid dimensions must not be negative", ErrInvalidInput)
	}
	if g.Floors > MaxCapacity || g.RoomsPerFloor > MaxCapacity || g.SeatsPerRoom > MaxCapacity ||
		g.Capacity() > MaxCapacity {
		return fmt.Errorf("%w: grid exceeds %d seats", ErrInvalidInput, MaxCapacity)
	}
	return nil
}

// Demand is the number of students a department sends to the sitting.
type Demand struct {
	Department string `json:"department"`
	Students   int    `json:"students"`
}

// Total sums the requested students.
func Total(demand []Demand) int {
	total := 0
	for _, d := range demand {
		total += d.Students
	}
	return total
}

// Allocation maps [floor][room][seat] to a department; "" marks an empty seat.
type Allocation [][][]string

// Allocate seats every requested student or fails without a partial result.
func Allocate(grid RoomGrid, demand []Demand) (Allocation, error) {
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	if err := validateDemand(demand); err != nil {
		return nil, err
	}

	total, capacity := Total(demand), grid.Capacity()
	if total > capacity {
		return nil, fmt.Errorf("%w: %d students for %d seats", ErrCapacityExceeded, total, capacity)
	}

	ordered := make([]Demand, len(demand))
	copy(ordered, demand)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Students > ordered[j].Students
	})

	out := make(Allocation, grid.Floors)
	placed := 0
	for f := range out {
		out[f] = make([][]string, grid.RoomsPerFloor)
		for r := range out[f] {
			room := make([]string, grid.SeatsPerRoom)
			for s := range room {
				if placed == total {
					break
				}
				for i := range ordered {
					if ordered[i].Students > 0 {
						room[s] = ordered[i].Department
						ordered[i].Students--
						placed++
						break
					}
				}
			}
			out[f][r] = room
		}
	}
	return out, nil
}

func validateDemand(demand []Demand) error {
	seen := make(map[string]struct{}, len(demand))
	for _, d := range demand {
		if !IsDepartment(d.Department) {
			return fmt.Errorf("%w: unknown department %q", ErrInvalidInput, d.Department)
		}
		if d.Students < 0 {
			return fmt.Errorf("%w: negative student count for %s", ErrInvalidInput, d.Department)
		}
		if d.Students > MaxCapacity {
			return fmt.Errorf("%w: %s exceeds %d students", ErrInvalidInput, d.Department, MaxCapacity)
		}
		if _, dup := seen[d.Department]; dup {
			return fmt.Errorf("%w: duplicate department %s", ErrInvalidInput, d.Department)
		}
		seen[d.Department] = struct{}{}
	}
	return nil
}

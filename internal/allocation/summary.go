package allocation

// RoomRef identifies a room by 1-based floor and room numbers.
type RoomRef struct {
	Floor int `json:"floor"`
	Room  int `json:"room"`
}

// DepartmentSummary aggregates where a department sits.
type DepartmentSummary struct {
	Department string    `json:"department"`
	Seats      int       `json:"seats"`
	Rooms      []RoomRef `json:"rooms"`
}

// Seat is one assigned seat in row-major order, numbered from 1.
type Seat struct {
	Floor      int
	Room       int
	Seat       int
	Department string
}

// Assigned counts non-empty seats.
func (a Allocation) Assigned() int {
	n := 0
	a.Each(func(s Seat) { n++ })
	return n
}

// Each visits every assigned seat in row-major order.
func (a Allocation) Each(fn func(Seat)) {
	for f, rooms := range a {
		for r, seats := range rooms {
			for s, dept := range seats {
				if dept != "" {
					fn(Seat{Floor: f + 1, Room: r + 1, Seat: s + 1, Department: dept})
				}
			}
		}
	}
}

// Summary lists departments in order of first appearance with their seat
// count and occupied rooms.
func (a Allocation) Summary() []DepartmentSummary {
	index := map[string]int{}
	var out []DepartmentSummary
	a.Each(func(s Seat) {
		i, ok := index[s.Department]
		if !ok {
			i = len(out)
			index[s.Department] = i
			out = append(out, DepartmentSummary{Department: s.Department})
		}
		sum := &out[i]
		sum.Seats++
		ref := RoomRef{Floor: s.Floor, Room: s.Room}
		if n := len(sum.Rooms); n == 0 || sum.Rooms[n-1] != ref {
			sum.Rooms = append(sum.Rooms, ref)
		}
	})
	return out
}

package timetable

// DefaultPeriods and the default clock values seed new timetables.
const (
	DefaultPeriods    = 6
	DefaultStartTime  = "09:00"
	DefaultEndTime    = "17:00"
	DefaultBreakStart = "13:00"
	DefaultBreakEnd   = "14:00"
)

// DefaultDays are the teaching days offered when creating a timetable.
var DefaultDays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

var catalog = map[string][]Pair{
	"CSE(AI&ML)": {
		{Subject: "Physics", Teacher: "Prof. Dibyendu Mal"},
		{Subject: "Chemistry", Teacher: "Prof. Priya Sharma"},
		{Subject: "Mathematics", Teacher: "Prof. Ananya Das"},
		{Subject: "Computer Science", Teacher: "Prof. Arjun Patel"},
		{Subject: "English", Teacher: "Prof. Nisha Gupta"},
	},
	"IT": {
		{Subject: "Programming", Teacher: "Prof. Rakesh Verma"},
		{Subject: "Database", Teacher: "Prof. Anjali Desai"},
		{Subject: "Networking", Teacher: "Prof. Maya Shah"},
		{Subject: "Web Development", Teacher: "Prof. Sanjay Kumar"},
		{Subject: "Data Structures", Teacher: "Prof. Ritu Patel"},
	},
	"ME": {
		{Subject: "Thermodynamics", Teacher: "Prof. Ajay Gupta"},
		{Subject: "Mechanics", Teacher: "Prof. Pooja Shah"},
		{Subject: "Machine Design", Teacher: "Prof. Sameer Verma"},
		{Subject: "Fluid Mechanics", Teacher: "Prof. Rajesh Kumar"},
		{Subject: "Manufacturing", Teacher: "Prof. Pradeep Singh"},
	},
}

// Departments lists departments that have a default catalog, in display order.
var Departments = []string{"CSE(AI&ML)", "IT", "ME"}

// CatalogFor returns a copy of the default pairs for department.
func CatalogFor(department string) ([]Pair, bool) {
	pairs, ok := catalog[department]
	if !ok {
		return nil, false
	}
	out := make([]Pair, len(pairs))
	copy(out, pairs)
	return out, true
}

// IsDepartment reports whether department has a default catalog.
func IsDepartment(department string) bool {
	_, ok := catalog[department]
	return ok
}

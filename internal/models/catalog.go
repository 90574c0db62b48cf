package models

// Ride is a fixed catalog entry; Floor is a coarse grouping label.
type Ride struct {
	ID    int    `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Floor string `json:"floor" yaml:"floor"`
}

// Operator is a staff member. Ticket-sales personnel use the same shape and
// differ only by the collection they are stored in.
type Operator struct {
	ID   int    `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Staff is the generic name used by the roster code for operators and personnel.
type Staff = Operator

// Counter is a ticket sales point.
type Counter struct {
	ID       int    `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Location string `json:"location" yaml:"location"`
}

// Entity is the thing staff are assigned to: a ride or a counter.
type Entity struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func RideEntities(rides []Ride) []Entity {
	out := make([]Entity, 0, len(rides))
	for _, r := range rides {
		out = append(out, Entity{ID: r.ID, Name: r.Name})
	}
	return out
}

func CounterEntities(counters []Counter) []Entity {
	out := make([]Entity, 0, len(counters))
	for _, c := range counters {
		out = append(out, Entity{ID: c.ID, Name: c.Name})
	}
	return out
}

package aggregates

// Contract names an aggregate and the tables its writes are allowed to touch.
// Every write method runs in a transaction the aggregate opens itself.
type Contract struct {
	Name   string
	Tables []string
	Notes  string
}

// Aggregate is implemented by every write-side aggregate.
type Aggregate interface {
	Contract() Contract
}

// Owns reports whether table belongs to the aggregate.
func (c Contract) Owns(table string) bool {
	for _, t := range c.Tables {
		if t == table {
			return true
		}
	}
	return false
}

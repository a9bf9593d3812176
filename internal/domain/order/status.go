package order

// Status represents the lifecycle state of a shop order
type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusShipped   Status = "shipped"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// statusLabels holds the customer-facing (Italian) labels shown in the shop
var statusLabels = map[Status]string{
	StatusPending:   "In Attesa",
	StatusPaid:      "Pagato",
	StatusShipped:   "Spedito",
	StatusCompleted: "Completato",
	StatusCancelled: "Annullato",
}

// IsValid checks if the status is a known Status
func (s Status) IsValid() bool {
	_, ok := statusLabels[s]
	return ok
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// Label returns the label displayed to customers
func (s Status) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusPending:
		return target == StatusPaid || target == StatusCancelled
	case StatusPaid:
		return target == StatusShipped || target == StatusCompleted
	case StatusShipped:
		return target == StatusCompleted
	case StatusCompleted, StatusCancelled:
		return false
	}
	return false
}

// IsTerminal reports whether no further transition is possible
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

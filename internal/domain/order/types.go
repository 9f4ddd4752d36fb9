package order

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPaid      Status = "PAID"
	StatusExpired   Status = "EXPIRED"
	StatusCancelled Status = "CANCELLED"
	StatusRefunded  Status = "REFUNDED"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusExpired, StatusCancelled, StatusRefunded:
		return true
	default:
		return false
	}
}

// IsTerminal reports statuses that no payment event can leave.
func (s Status) IsTerminal() bool {
	return s == StatusExpired || s == StatusCancelled || s == StatusRefunded
}

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.IsValid() {
		return "", ErrInvalidStatus
	}
	return st, nil
}

type Event string

const (
	EventPaid      Event = "paid"
	EventExpire    Event = "expire"
	EventCancel    Event = "cancel"
	EventRefund    Event = "refund"
	EventDelivered Event = "delivered"
)

func (e Event) String() string {
	return string(e)
}

// Delivered is not here: it sets a flag on PAID orders instead of changing status.
var transitions = map[Status]map[Event]Status{
	StatusPending: {
		EventPaid:   StatusPaid,
		EventExpire: StatusExpired,
		EventCancel: StatusCancelled,
	},
	StatusPaid: {
		EventRefund: StatusRefunded,
	},
}

// Next returns the status reached by applying ev to s.
func Next(s Status, ev Event) (Status, bool) {
	if ev == EventDelivered {
		return s, s == StatusPaid
	}
	next, ok := transitions[s][ev]
	return next, ok
}

// ReleasesStock reports whether reaching s gives the reserved units back.
func ReleasesStock(s Status) bool {
	return s == StatusExpired || s == StatusCancelled
}

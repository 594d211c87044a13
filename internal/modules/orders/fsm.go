package orders

// Forward is the fulfilment path an order advances along one step at a time.
var Forward = []Status{StatusPending, StatusPaid, StatusPreparing, StatusShipping, StatusDelivered}

func (s Status) Terminal() bool { return s == StatusCancelled || s == StatusRefunded }

// NextStatus returns the status after one advance. For delivered orders it
// returns delivered and changed=false. Cancelled and refunded orders fail
// with ErrTerminal.
func NextStatus(from Status) (to Status, changed bool, err error) {
	if from.Terminal() {
		return from, false, ErrTerminal
	}
	for i, s := range Forward {
		if s != from {
			continue
		}
		if i == len(Forward)-1 {
			return from, false, nil
		}
		return Forward[i+1], true, nil
	}
	return from, false, ErrTerminal
}

// CanCancel reports whether from may move to cancelled.
func CanCancel(from Status) error {
	switch from {
	case StatusPending, StatusPaid, StatusPreparing, StatusShipping:
		return nil
	case StatusDelivered:
		return ErrDeliveredNoCancel
	case StatusCancelled:
		return ErrAlreadyCancelled
	default:
		return ErrAlreadyRefunded
	}
}

// CanRefund reports whether from may move to refunded.
func CanRefund(from Status) error {
	switch from {
	case StatusPaid, StatusPreparing, StatusShipping, StatusDelivered:
		return nil
	case StatusRefunded:
		return ErrAlreadyRefunded
	case StatusCancelled:
		return ErrAlreadyCancelled
	default:
		return ErrNotRefundable
	}
}

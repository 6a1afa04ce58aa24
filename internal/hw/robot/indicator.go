package robot

// Signaler shows a Signal on some external device (e.g. a GPIO RGB LED).
type Signaler interface {
	Show(s Signal) error
}

// signaled routes SetIndicator to a Signaler and delegates everything else.
type signaled struct {
	Robot
	sig Signaler
}

// WithIndicator returns r with its status LED replaced by sig.
func WithIndicator(r Robot, sig Signaler) Robot {
	return &signaled{Robot: r, sig: sig}
}

func (s *signaled) SetIndicator(sig Signal) error {
	return s.sig.Show(sig)
}

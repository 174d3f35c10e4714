package presenter

// Dispatcher drives Update over a FIFO of messages. Follow-ups returned by
// Update are appended and processed before Dispatch returns. A Dispatch
// issued while one is running only enqueues.
type Dispatcher struct {
	state   *State
	queue   []Msg
	running bool
	handled uint64
}

func NewDispatcher(s *State) *Dispatcher { return &Dispatcher{state: s} }

func (d *Dispatcher) Dispatch(msgs ...Msg) {
	if d == nil || d.state == nil {
		return
	}
	d.queue = append(d.queue, msgs...)
	if d.running {
		return
	}
	d.running = true
	defer func() { d.running = false }()
	for len(d.queue) > 0 {
		m := d.queue[0]
		d.queue[0] = nil
		d.queue = d.queue[1:]
		d.handled++
		d.queue = append(d.queue, Update(d.state, m)...)
	}
}

// Handled counts processed messages.
func (d *Dispatcher) Handled() uint64 {
	if d == nil {
		return 0
	}
	return d.handled
}

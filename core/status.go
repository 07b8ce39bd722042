package core

// Status is a snapshot of the radio for status reporting
type Status struct {
	State          LinkState
	On             bool
	Sniff          bool
	Channel        uint8
	Power          uint8
	LinkQuality    uint8 // raw value of the last received frame
	LinkQualityDBm int
}

// LinkQualityDBm converts a raw link quality reading to dBm
func LinkQualityDBm(raw uint8) int {
	return -int(raw / 2)
}

// Status returns the current state and configuration
func (r *Radio) Status() Status {
	lq := uint8(r.linkQuality.Load())
	return Status{
		State:          r.State(),
		On:             r.on.Load(),
		Sniff:          r.sniff.Load(),
		Channel:        uint8(r.channel.Load()),
		Power:          uint8(r.power.Load()),
		LinkQuality:    lq,
		LinkQualityDBm: LinkQualityDBm(lq),
	}
}

// State returns the current link state
func (r *Radio) State() LinkState {
	return LinkState(r.state.Load())
}

func (r *Radio) IsOn() bool {
	return r.on.Load()
}

func (r *Radio) IsSniffing() bool {
	return r.sniff.Load()
}

// SetOn turns the radio on or off. While off, Process does nothing and the
// state is kept.
func (r *Radio) SetOn(on bool) {
	r.on.Store(on)
}

// SetSniff turns frame capture on or off
func (r *Radio) SetSniff(on bool) {
	r.sniff.Store(on)
}

// SetChannel selects a channel in 0..15. The transceiver is updated on the
// next poll.
func (r *Radio) SetChannel(ch uint8) error {
	if ch > MaxChannel {
		return ErrRange
	}
	r.channel.Store(uint32(ch))
	r.setPending(pendingChannel)
	return nil
}

// SetPower selects an output power level in 0..15. The transceiver is
// updated on the next poll.
func (r *Radio) SetPower(level uint8) error {
	if level > MaxPower {
		return ErrRange
	}
	r.power.Store(uint32(level))
	r.setPending(pendingPower)
	return nil
}

// RequestReset asks the polling loop to re-initialise the transceiver
func (r *Radio) RequestReset() {
	r.events.Set(EventReset)
}

// Stats returns a snapshot of the link counters
func (r *Radio) Stats() StatsSnapshot {
	return r.stats.Snapshot()
}

func (r *Radio) ResetStats() {
	r.stats.Reset()
}

// Config returns the settings the controller was created with
func (r *Radio) Config() Config {
	return r.cfg
}

func (r *Radio) setPending(bit uint32) {
	for {
		old := r.pending.Load()
		if r.pending.CompareAndSwap(old, old|bit) {
			return
		}
	}
}

package core

// Broadcast sends an event to every subscriber in order, once each.
// A subscriber that is closed or backed up is skipped; its own read loop
// takes care of cleanup. Returns the number of successful deliveries.
func Broadcast(subscribers []*Client, ev *Event) int {
	sent := 0
	for _, c := range subscribers {
		if c == nil {
			continue
		}
		if err := c.TrySend(ev); err != nil {
			continue
		}
		sent++
	}
	return sent
}

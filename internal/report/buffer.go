package report

import "log/slog"

// pendingReport is a serialized status held back while the broker is unreachable.
type pendingReport struct {
	machineID int
	topic     string
	payload   []byte
}

// pendingQueue is a fixed-capacity FIFO of reports awaiting reconnection.
// When full the oldest report is dropped; a newer status for the same
// machine supersedes it anyway. Not safe for concurrent use.
type pendingQueue struct {
	buf     []pendingReport
	head    int // next write position
	count   int
	dropped int // reports dropped since last drain
}

func newPendingQueue(capacity int) *pendingQueue {
	if capacity < 1 {
		capacity = 1
	}
	return &pendingQueue{buf: make([]pendingReport, capacity)}
}

func (q *pendingQueue) push(p pendingReport) {
	capacity := len(q.buf)
	if q.count == capacity {
		if q.dropped == 0 {
			slog.Warn("MQTT report queue full, dropping oldest.", "capacity", capacity)
		}
		q.dropped++
		q.buf[q.head] = p
		q.head = (q.head + 1) % capacity
		return
	}
	q.buf[q.head] = p
	q.head = (q.head + 1) % capacity
	q.count++
}

// drain returns queued reports oldest first and empties the queue.
func (q *pendingQueue) drain() []pendingReport {
	if q.count == 0 {
		return nil
	}
	capacity := len(q.buf)
	out := make([]pendingReport, q.count)
	start := (q.head - q.count + capacity) % capacity
	for i := range out {
		out[i] = q.buf[(start+i)%capacity]
	}
	q.count = 0
	q.head = 0
	q.dropped = 0
	return out
}

func (q *pendingQueue) len() int {
	return q.count
}

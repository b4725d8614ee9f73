package mqtt

import "log"

// queuedMsg stores a serialized MQTT message for replay after reconnection.
type queuedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// replayQueue is a bounded FIFO that stores messages while the broker is
// unreachable. When full, the oldest message is dropped.
// Not safe for concurrent use; the caller must synchronize.
type replayQueue struct {
	msgs    []queuedMsg
	max     int
	dropped bool // true if any message was dropped since last drain
}

func newReplayQueue(max int) *replayQueue {
	return &replayQueue{max: max}
}

func (q *replayQueue) push(msg queuedMsg) {
	if len(q.msgs) == q.max {
		if !q.dropped {
			log.Printf("mqtt: replay queue full (%d messages), dropping oldest", q.max)
			q.dropped = true
		}
		copy(q.msgs, q.msgs[1:])
		q.msgs[len(q.msgs)-1] = msg
		return
	}
	q.msgs = append(q.msgs, msg)
}

func (q *replayQueue) drain() []queuedMsg {
	if len(q.msgs) == 0 {
		return nil
	}
	out := q.msgs
	q.msgs = nil
	q.dropped = false
	return out
}

func (q *replayQueue) len() int {
	return len(q.msgs)
}

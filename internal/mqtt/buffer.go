package mqtt

import "log"

// queuedMsg is a serialized MQTT message held for replay after reconnection.
type queuedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// replayQueue is a fixed-capacity FIFO holding messages published while the
// broker connection is down. When full, the oldest message is dropped: for
// bus monitoring, recent frames are worth more than old ones.
// Not safe for concurrent use — caller must synchronize.
type replayQueue struct {
	msgs    []queuedMsg
	max     int
	dropped int // messages lost to overflow since the last drain
}

func newReplayQueue(max int) *replayQueue {
	return &replayQueue{max: max}
}

func (q *replayQueue) add(msg queuedMsg) {
	if len(q.msgs) == q.max {
		if q.dropped == 0 {
			log.Printf("mqtt: replay queue full (%d messages), dropping oldest", q.max)
		}
		q.dropped++
		copy(q.msgs, q.msgs[1:])
		q.msgs[len(q.msgs)-1] = msg
		return
	}
	q.msgs = append(q.msgs, msg)
}

// drain returns the queued messages oldest-first and empties the queue.
func (q *replayQueue) drain() []queuedMsg {
	if len(q.msgs) == 0 {
		return nil
	}
	out := q.msgs
	q.msgs = nil
	q.dropped = 0
	return out
}

func (q *replayQueue) len() int {
	return len(q.msgs)
}

package capability

// ProgressEventType discriminates the events a pipeline emits to its
// ProgressChannel.
type ProgressEventType int

const (
	EventFileStarted ProgressEventType = iota
	EventBytesUploaded
	EventFileCompleted
	EventFileFailed
	EventSummary
)

// ProgressEvent is one typed notification emitted during a long-running
// pipeline (mass import, sync). Fields not relevant to Type are zero.
type ProgressEvent struct {
	Type       ProgressEventType
	Path       string
	BytesDone  int64
	BytesTotal int64
	Error      error
	Message    string
}

// ProgressChannel is a one-producer, many-consumer event stream backed by a
// buffered Go channel of fixed capacity; it is not unbounded, and Send blocks
// once the buffer is full until a consumer receives. Production code sends
// on Events; callers receive from Events to observe progress. The pipelines
// never close it; once Close is called, ranging over Events terminates.
type ProgressChannel struct {
	Events chan ProgressEvent
}

// NewProgressChannel creates a ProgressChannel with the given buffer
// capacity. A bounded buffer merely reduces blocking under a slow consumer;
// it does not impose backpressure semantics the producer depends on.
func NewProgressChannel(buffer int) *ProgressChannel {
	return &ProgressChannel{Events: make(chan ProgressEvent, buffer)}
}

// Send emits an event. Safe to call from the single producer goroutine
// only; ProgressChannel has no multi-producer synchronization.
func (p *ProgressChannel) Send(ev ProgressEvent) {
	if p == nil {
		return
	}

	p.Events <- ev
}

// Close terminates the channel and may be called at most once. No pipeline
// calls it: a channel shared through AppServices is reused across runs.
func (p *ProgressChannel) Close() {
	if p == nil {
		return
	}

	close(p.Events)
}

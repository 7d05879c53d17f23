package dispatch

// Recorder receives operational counters from the dispatcher. The metrics
// adapter implements it; NopRecorder serves runs without metrics.
type Recorder interface {
	OrderPlaced()
	OrderCanceled()
	OrderFulfilled(clickToDoorSeconds int64)
	OrderLost()
	NotificationSent()
	NotificationAccepted()
	NotificationRejected()
}

// NopRecorder discards every event.
type NopRecorder struct{}

func (NopRecorder) OrderPlaced()          {}
func (NopRecorder) OrderCanceled()        {}
func (NopRecorder) OrderFulfilled(int64)  {}
func (NopRecorder) OrderLost()            {}
func (NopRecorder) NotificationSent()     {}
func (NopRecorder) NotificationAccepted() {}
func (NopRecorder) NotificationRejected() {}

package honeypot

// MetricsReporter receives counters for honeypot activity.
type MetricsReporter interface {
	ConnectionOpened(port int)
	ConnectionClosed(port int)
	PayloadReceived(port, n int)
	ConnectionTimedOut(port int)
	ConnectionError(port int, stage string)
	BindFailed(port int)
	ListenerStarted(port int)
	ListenerStopped(port int)
}

type nopMetrics struct{}

func (nopMetrics) ConnectionOpened(int) {}
func (nopMetrics) ConnectionClosed(int) {}
func (nopMetrics) PayloadReceived(int, int) {}
func (nopMetrics) ConnectionTimedOut(int) {}
func (nopMetrics) ConnectionError(int, string) {}
func (nopMetrics) BindFailed(int) {}
func (nopMetrics) ListenerStarted(int) {}
func (nopMetrics) ListenerStopped(int) {}

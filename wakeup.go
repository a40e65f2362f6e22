package eventcore

// Cross-goroutine wake-up support.
//
// [Loop.Run] spends most of its time blocked in the platform poller.
// [Loop.Stop] signals the loop's wake pair so shutdown can cut that block
// short, and the interrupt manager signals a wake pair of its own when a
// signal arrives on its watcher goroutine; no other operation (such as
// [Loop.AddDelayed] or a timer registration) signals it. Each platform file
// (wakeup_linux.go, wakeup_darwin.go, wakeup_windows.go) supplies a
// readFd/writeFd pair registered with the poller for ioEventRead: writing
// to writeFd makes readFd ready, which unblocks poll() on the next
// cycle. createWakeFD/closeWakeFD/signalWakeFD/drainWakeFD are the only
// functions the rest of the package needs from that pair.

// wakeSource is the read side of the wake pair, registered with the
// poller like any other fd but never exposed through the Source registry:
// it exists purely to interrupt poll(), not to participate in lifecycle
// dispatch.
type wakeSource struct {
	readFd, writeFd int
}

func newWakeSource() (*wakeSource, error) {
	r, w, err := createWakeFD()
	if err != nil {
		return nil, err
	}
	return &wakeSource{readFd: r, writeFd: w}, nil
}

func (w *wakeSource) signal() error {
	return signalWakeFD(w.writeFd)
}

func (w *wakeSource) drain() error {
	return drainWakeFD(w.readFd)
}

func (w *wakeSource) close() error {
	return closeWakeFD(w.readFd, w.writeFd)
}

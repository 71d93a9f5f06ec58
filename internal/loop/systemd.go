package loop

import (
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
)

const (
	stateReady    = daemon.SdNotifyReady
	stateStopping = daemon.SdNotifyStopping
	stateWatchdog = daemon.SdNotifyWatchdog
)

// SystemdNotifier talks to systemd over NOTIFY_SOCKET. Outside systemd every
// call is a no-op.
type SystemdNotifier struct{}

func (SystemdNotifier) Notify(state string) error {
	_, err := daemon.SdNotify(false, state)
	return err
}

// SystemdWatchdog returns the ping interval for the unit's WatchdogSec: half the
// configured timeout, or 0 when the watchdog is off.
func SystemdWatchdog() time.Duration {
	d, err := daemon.SdWatchdogEnabled(false)
	if err != nil || d <= 0 {
		return 0
	}
	return d / 2
}

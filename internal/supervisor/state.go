package supervisor

import "fmt"

// State is the supervisor's lifecycle position.
type State int

const (
	Idle State = iota
	Preparing
	Provisioning
	Watching
	Stopped
	// Degraded means startup or the watch process failed and the serving
	// layer is expected to fall back to the CDN.
	Degraded
	// Disabled means watch mode is switched off; the stylesheet is built ahead
	// of time.
	Disabled
)

var stateNames = [...]string{"idle", "preparing", "provisioning", "watching", "stopped", "degraded", "disabled"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// StateNames lists every state label, for metrics.
func StateNames() []string {
	return stateNames[:]
}

// Startup stages named in StageError.
const (
	StagePrepare   = "prepare"
	StageProvision = "provision"
	StageWatch     = "watch"
)

// StageError reports which startup stage failed.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("tailbreeze %s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

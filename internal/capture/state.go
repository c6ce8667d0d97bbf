package capture

import (
	"time"

	"github.com/bkyoung/ideaminer/internal/domain"
)

// State is the sealed set of capture states. The machine is only ever in one
// of the concrete states below; the unexported method keeps the set closed.
type State interface {
	Name() string
	isState()
}

// Idle is the rest state. Every flow ends back here.
type Idle struct{}

// RequestingPermission means the recorder is waiting for microphone access.
type RequestingPermission struct{}

// Recording carries how long audio has been captured so far.
type Recording struct {
	Elapsed time.Duration
}

// Processing covers transcription and draft generation. The work runs in the
// background; the machine leaves this state when the result lands or the
// flow is cancelled.
type Processing struct{}

// Review holds a generated draft awaiting a human accept or discard.
type Review struct {
	Draft domain.GeneratedIdea
}

// PermissionDenied is terminal until an explicit Reset.
type PermissionDenied struct {
	Reason string
}

// Failed is terminal until an explicit Reset. The reason is user-facing.
type Failed struct {
	Reason string
}

func (Idle) Name() string                 { return "idle" }
func (RequestingPermission) Name() string { return "requesting_permission" }
func (Recording) Name() string            { return "recording" }
func (Processing) Name() string           { return "processing" }
func (Review) Name() string               { return "review" }
func (PermissionDenied) Name() string     { return "permission_denied" }
func (Failed) Name() string               { return "error" }

func (Idle) isState()                 {}
func (RequestingPermission) isState() {}
func (Recording) isState()            {}
func (Processing) isState()           {}
func (Review) isState()               {}
func (PermissionDenied) isState()     {}
func (Failed) isState()               {}

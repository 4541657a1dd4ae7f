package telemetry

import (
	"strings"

	"codeberg.org/mutker/telemetryd/internal/errors"
)

// Phase is the mission phase. It is set manually; nothing here infers it.
type Phase string

const (
	PhasePreLaunch Phase = "pre-launch"
	PhaseAscent    Phase = "ascent"
	PhaseDescent   Phase = "descent"
	PhaseLanded    Phase = "landed"
	PhaseRecovery  Phase = "recovery"
)

// Phases lists every phase in mission order.
var Phases = []Phase{PhasePreLaunch, PhaseAscent, PhaseDescent, PhaseLanded, PhaseRecovery}

// ParsePhase accepts a phase name, ignoring case and surrounding space.
func ParsePhase(name string) (Phase, error) {
	p := Phase(strings.ToLower(strings.TrimSpace(name)))
	if p.IsValid() {
		return p, nil
	}
	return "", errors.New().WithData(ErrInvalidPhase, name)
}

func (p Phase) IsValid() bool {
	for _, known := range Phases {
		if p == known {
			return true
		}
	}
	return false
}

func (p Phase) String() string {
	return string(p)
}

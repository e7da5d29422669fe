package assessment

// Signal is a proctoring event reported by the UI while an assessment is
// in progress. The set is closed: unknown kinds are a decode error at the
// API boundary, not a silently ignored string.
type Signal int

const (
	SignalTabHidden Signal = iota
	SignalCopy
	SignalPaste
	SignalContextMenu
)

var signalNames = map[Signal]string{
	SignalTabHidden:   "tab_hidden",
	SignalCopy:        "copy",
	SignalPaste:       "paste",
	SignalContextMenu: "context_menu",
}

func (s Signal) String() string {
	if n, ok := signalNames[s]; ok {
		return n
	}
	return "unknown"
}

// ParseSignal maps the wire name to a Signal.
func ParseSignal(name string) (Signal, bool) {
	for s, n := range signalNames {
		if n == name {
			return s, true
		}
	}
	return 0, false
}

// Outcome tells the caller what a reported signal did.
type Outcome struct {
	WarningCount int  `json:"warning_count"`
	Counted      bool `json:"counted"`
	ForceSubmit  bool `json:"force_submit"`
}

// Proctor counts violations for one in-progress assessment. Hidden-tab
// events always count; the other signals warn only unless the engine was
// built with WithStrictSignals.
type Proctor struct {
	engine     *Engine
	violations int
	warnings   int
}

func (e *Engine) NewProctor() *Proctor {
	return &Proctor{engine: e}
}

// Report records a signal and says whether the threshold was crossed. The
// caller owns the forced submit itself.
func (p *Proctor) Report(sig Signal) Outcome {
	p.warnings++
	counted := sig == SignalTabHidden || p.engine.strictSignals
	if counted {
		p.violations++
	}
	return Outcome{
		WarningCount: p.warnings,
		Counted:      counted,
		ForceSubmit:  counted && p.violations >= p.engine.maxViolations,
	}
}

func (p *Proctor) Violations() int { return p.violations }

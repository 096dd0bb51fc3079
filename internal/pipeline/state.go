package pipeline

// State is a snapshot of the pipeline. Values are never modified in place;
// every transition below returns a new record.
type State struct {
	Stage               Stage  `json:"stage"`
	HighestStageReached Stage  `json:"highestStageReached"`
	Busy                bool   `json:"busy"`
	LastError           string `json:"lastError,omitempty"`
	ArtifactPath        string `json:"artifactPath,omitempty"`
}

func initialState() State {
	return State{Stage: StageWelcome, HighestStageReached: StageWelcome}
}

// begin marks an operation in flight and clears the previous outcome.
func (s State) begin() State {
	s.Busy = true
	s.LastError = ""
	return s
}

// fail settles an operation without moving the stage.
func (s State) fail(err error) State {
	s.Busy = false
	s.LastError = err.Error()
	return s
}

// settle clears the busy flag after a successful operation.
func (s State) settle() State {
	s.Busy = false
	return s
}

// advance moves to stage and raises the high-water mark if needed.
func (s State) advance(to Stage) State {
	s.Stage = to
	if to > s.HighestStageReached {
		s.HighestStageReached = to
	}
	return s
}

// enter moves to an already reached stage.
func (s State) enter(to Stage) State {
	s.Stage = to
	return s
}

func (s State) withArtifact(path string) State {
	s.ArtifactPath = path
	return s
}

func (s State) withoutArtifact() State {
	s.ArtifactPath = ""
	return s
}

// reset returns to the reference collection step. The high-water mark is
// kept.
func (s State) reset() State {
	s.LastError = ""
	s.ArtifactPath = ""
	if s.HighestStageReached >= StageFetch {
		s.Stage = StageFetch
	}
	return s
}

package pipeline

import (
	"fmt"
	"strconv"
	"strings"
)

// Stage is a step of the highlight pipeline. Stages are ordered; a larger
// value is further along.
type Stage int

const (
	StageWelcome Stage = iota
	StageFetch
	StageSearch
	StageRefine
	StageCreate
	StagePreview
)

var stageNames = [...]string{"welcome", "fetch", "search", "refine", "create", "preview"}

func (s Stage) String() string {
	if s < StageWelcome || s > StagePreview {
		return "stage(" + strconv.Itoa(int(s)) + ")"
	}
	return stageNames[s]
}

func (s Stage) Valid() bool {
	return s >= StageWelcome && s <= StagePreview
}

// ParseStage accepts a stage name or its ordinal.
func ParseStage(v string) (Stage, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	for i, name := range stageNames {
		if v == name {
			return Stage(i), nil
		}
	}
	if n, err := strconv.Atoi(v); err == nil && Stage(n).Valid() {
		return Stage(n), nil
	}
	return 0, fmt.Errorf("unknown stage %q", v)
}

func (s Stage) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid stage %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *Stage) UnmarshalText(b []byte) error {
	parsed, err := ParseStage(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

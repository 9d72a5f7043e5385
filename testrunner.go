package umbrella

import (
	"encoding/json"
	"fmt"
)

// testStep represents a single action in an input script.
type testStep struct {
	Action  string `json:"action"`
	Control string `json:"control,omitempty"`
	Frames  int    `json:"frames,omitempty"`
}

// testScript is the top-level JSON structure for an input script.
type testScript struct {
	Steps []testStep `json:"steps"`
}

// TestRunner sequences control changes across frames for headless runs of
// the frame loop. Attach to an Engine via SetTestRunner.
//
//	{"steps": [
//	  {"action": "press", "control": "right"},
//	  {"action": "wait", "frames": 30},
//	  {"action": "release", "control": "right"},
//	  {"action": "blur"}
//	]}
type TestRunner struct {
	steps     []testStep
	cursor    int
	waitCount int
	done      bool
}

// LoadTestScript parses a JSON input script and returns a TestRunner ready
// to be attached to an Engine via SetTestRunner.
func LoadTestScript(jsonData []byte) (*TestRunner, error) {
	var script testScript
	if err := json.Unmarshal(jsonData, &script); err != nil {
		return nil, fmt.Errorf("parse test script: %w", err)
	}
	if len(script.Steps) == 0 {
		return nil, fmt.Errorf("parse test script: no steps")
	}
	for i, st := range script.Steps {
		switch st.Action {
		case "press", "release":
			var c Controls
			if !c.Set(st.Control, true) {
				return nil, fmt.Errorf("parse test script: step %d: unknown control %q", i, st.Control)
			}
		case "blur", "wait":
		default:
			return nil, fmt.Errorf("parse test script: step %d: unknown action %q", i, st.Action)
		}
	}
	return &TestRunner{steps: script.Steps}, nil
}

// SetTestRunner attaches a TestRunner to the engine. The runner's step method
// is called at the start of every Update.
func (e *Engine) SetTestRunner(runner *TestRunner) {
	e.testRunner = runner
}

// Done reports whether all steps in the script have been executed.
func (r *TestRunner) Done() bool {
	return r.done
}

// step advances the runner by one frame, applying at most one step to c.
func (r *TestRunner) step(c *Controls) {
	if r.done {
		return
	}
	// Count down wait frames.
	if r.waitCount > 0 {
		r.waitCount--
		return
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return
	}

	st := r.steps[r.cursor]
	r.cursor++

	switch st.Action {
	case "press":
		c.Set(st.Control, true)
	case "release":
		c.Set(st.Control, false)
	case "blur":
		*c = Controls{}
	case "wait":
		if st.Frames > 0 {
			r.waitCount = st.Frames - 1 // this frame counts as one
		}
	}

	// Check if we've reached the end after executing.
	if r.cursor >= len(r.steps) && r.waitCount == 0 {
		r.done = true
	}
}

// TestRunner returns the attached runner, or nil.
func (e *Engine) TestRunner() *TestRunner {
	return e.testRunner
}

package tool

import (
	"context"
	"encoding/json"
	"math/rand/v2"
)

const exerciseToolName = "propose_brain_exercise"

const exerciseDescription = `Call this function when you want to provide the user with a short brain exercise
such as a quick memory or attention challenge.`

// DefaultExercises are the canned challenges offered by the exercise tool.
var DefaultExercises = []string{
	"Memorize these three words for 30 seconds: apple, boat, tree. Then try to recall them in reverse order.",
	"Count backwards from 100 by sevens.",
	"Name as many animals as you can that start with the letter 'B' within one minute.",
}

// ExerciseOutput is the payload returned to the backend.
type ExerciseOutput struct {
	Exercise string `json:"exercise"`
}

// ExerciseTool proposes a random brain exercise.
type ExerciseTool struct {
	exercises []string
	pick      func(n int) int
}

// NewExerciseTool creates the exercise tool. A nil pick uses math/rand.
func NewExerciseTool(exercises []string, pick func(n int) int) *ExerciseTool {
	if len(exercises) == 0 {
		exercises = DefaultExercises
	}
	if pick == nil {
		pick = rand.IntN
	}
	return &ExerciseTool{exercises: exercises, pick: pick}
}

func (t *ExerciseTool) Name() string        { return exerciseToolName }
func (t *ExerciseTool) Description() string { return exerciseDescription }

func (t *ExerciseTool) Parameters() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{}}`)
}

func (t *ExerciseTool) Execute(_ context.Context, _ json.RawMessage) (*Result, error) {
	return JSONResult(ExerciseOutput{Exercise: t.exercises[t.pick(len(t.exercises))]})
}

func (t *ExerciseTool) Narrate(res *Result) string {
	var out ExerciseOutput
	if res != nil && json.Unmarshal(res.Output, &out) == nil && out.Exercise != "" {
		return "Share this exercise with the user and encourage them to try it: " + out.Exercise
	}
	return "share the exercise with the user and encourage them to try it."
}

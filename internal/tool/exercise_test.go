package tool

import (
	"context"
	"encoding/json"
	"testing"
)

func TestExerciseToolPicksFromList(t *testing.T) {
	for i, want := range DefaultExercises {
		tl := NewExerciseTool(nil, func(n int) int {
			if n != len(DefaultExercises) {
				t.Fatalf("expected n=%d, got %d", len(DefaultExercises), n)
			}
			return i
		})
		res, err := tl.Execute(context.Background(), json.RawMessage(`{}`))
		if err != nil {
			t.Fatal(err)
		}
		var out ExerciseOutput
		if err := json.Unmarshal(res.Output, &out); err != nil {
			t.Fatal(err)
		}
		if out.Exercise != want {
			t.Fatalf("expected %q, got %q", want, out.Exercise)
		}
	}
}

func TestExerciseToolDefaultRandom(t *testing.T) {
	tl := NewExerciseTool(nil, nil)
	for i := 0; i < 20; i++ {
		res, err := tl.Execute(context.Background(), nil)
		if err != nil {
			t.Fatal(err)
		}
		var out ExerciseOutput
		_ = json.Unmarshal(res.Output, &out)
		found := false
		for _, e := range DefaultExercises {
			if e == out.Exercise {
				found = true
			}
		}
		if !found {
			t.Fatalf("unexpected exercise %q", out.Exercise)
		}
	}
}

func TestExerciseNarrateFallback(t *testing.T) {
	tl := NewExerciseTool(nil, nil)
	got := tl.Narrate(&Result{Output: json.RawMessage(`not json`)})
	if got != "share the exercise with the user and encourage them to try it." {
		t.Fatalf("unexpected fallback narration %q", got)
	}
}

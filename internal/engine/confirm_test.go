package engine

import (
	"testing"

	"github.com/dysphagialab/swallow-detect/internal/models"
)

func TestConfirmEventsOverlapping(t *testing.T) {
	a := []models.Event{{Start: 100, End: 160}}
	b := []models.Event{{Start: 110, End: 170}}

	got := ConfirmEvents(a, b)
	want := []models.Event{{Start: 105, End: 165}}
	if !equalEvents(got, want) {
		t.Errorf("confirmed = %v, want %v", got, want)
	}
}

func TestConfirmEventsDisjoint(t *testing.T) {
	a := []models.Event{{Start: 100, End: 160}}
	b := []models.Event{{Start: 300, End: 360}}

	if got := ConfirmEvents(a, b); len(got) != 0 {
		t.Errorf("disjoint events should not confirm, got %v", got)
	}
}

func TestConfirmEventsSingleSampleTouchIsNotOverlap(t *testing.T) {
	// min(ends) == max(starts) scores zero under the overlap measure.
	a := []models.Event{{Start: 0, End: 50}}
	b := []models.Event{{Start: 50, End: 100}}

	if got := ConfirmEvents(a, b); len(got) != 0 {
		t.Errorf("touching events should not confirm, got %v", got)
	}
}

func TestConfirmEventsSymmetric(t *testing.T) {
	a := []models.Event{{Start: 10, End: 50}, {Start: 100, End: 140}, {Start: 200, End: 240}}
	b := []models.Event{{Start: 20, End: 60}, {Start: 205, End: 250}}

	ab := ConfirmEvents(a, b)
	ba := ConfirmEvents(b, a)
	if !equalEvents(ab, ba) {
		t.Errorf("confirmation should be symmetric: %v vs %v", ab, ba)
	}
	if len(ab) > len(b) {
		t.Errorf("confirmed count %d exceeds shorter input %d", len(ab), len(b))
	}
}

func TestConfirmEventsTieGoesToEarliest(t *testing.T) {
	// Both candidates overlap the primary by the same amount; the earlier one
	// must win the match.
	a := []models.Event{{Start: 100, End: 200}}
	b := []models.Event{{Start: 90, End: 110}, {Start: 190, End: 210}}

	got := ConfirmEvents(a, b)
	want := []models.Event{{Start: 95, End: 155}}
	if !equalEvents(got, want) {
		t.Errorf("confirmed = %v, want %v", got, want)
	}
}

func TestConfirmEventsEmptyInput(t *testing.T) {
	if got := ConfirmEvents(nil, []models.Event{{Start: 0, End: 10}}); got != nil {
		t.Errorf("empty primary should confirm nothing, got %v", got)
	}
	if got := ConfirmEvents(nil, nil); got != nil {
		t.Errorf("two empty lists should confirm nothing, got %v", got)
	}
}

func TestConfirmChannels(t *testing.T) {
	ch1 := []models.Event{{Start: 100, End: 160}}
	ch2 := []models.Event{{Start: 104, End: 164}}
	ch3 := []models.Event{{Start: 108, End: 168}}

	t.Run("single channel passes through", func(t *testing.T) {
		got := ConfirmChannels([][]models.Event{ch1})
		if !equalEvents(got, ch1) {
			t.Errorf("got %v, want %v", got, ch1)
		}
	})

	t.Run("pair", func(t *testing.T) {
		got := ConfirmChannels([][]models.Event{ch1, ch2})
		want := []models.Event{{Start: 102, End: 162}}
		if !equalEvents(got, want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("odd channel carries over", func(t *testing.T) {
		// Round 1: (ch1,ch2) -> [102,162], ch3 carried. Round 2: against ch3.
		got := ConfirmChannels([][]models.Event{ch1, ch2, ch3})
		want := []models.Event{{Start: 105, End: 165}}
		if !equalEvents(got, want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("no channels", func(t *testing.T) {
		if got := ConfirmChannels(nil); got != nil {
			t.Errorf("got %v, want nil", got)
		}
	})

	t.Run("disagreeing channel empties the result", func(t *testing.T) {
		got := ConfirmChannels([][]models.Event{ch1, {{Start: 900, End: 960}}})
		if len(got) != 0 {
			t.Errorf("got %v, want none", got)
		}
	})
}

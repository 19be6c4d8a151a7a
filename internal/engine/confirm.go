package engine

import (
	"math"
	"sort"

	"github.com/dysphagialab/swallow-detect/internal/models"
)

// ConfirmEvents reconciles two independently detected event lists into the
// subset supported by both channels. Each event in the shorter list is
// matched against every event in the other list by temporal overlap
// (max(0, min(ends) − max(starts)); ties go to the earliest candidate), and a
// positive-overlap match emits a confirmed event whose bounds are the rounded
// mean of the matched starts and ends. Events without a positive-overlap
// match are dropped.
//
// Scanning the shorter list is an optimisation only; the confirmed set is
// symmetric in its arguments. The result is ordered by start index and never
// larger than the shorter input.
func ConfirmEvents(a, b []models.Event) []models.Event {
	primary, secondary := a, b
	if len(b) < len(a) {
		primary, secondary = b, a
	}
	if len(primary) == 0 {
		return nil
	}

	var confirmed []models.Event
	for _, p := range primary {
		bestIdx := -1
		bestOverlap := 0
		for i, s := range secondary {
			ov := overlap(p, s)
			if ov > bestOverlap {
				bestOverlap = ov
				bestIdx = i
			}
		}
		if bestIdx < 0 {
			continue
		}
		m := secondary[bestIdx]
		confirmed = append(confirmed, models.Event{
			Start: roundMean(p.Start, m.Start),
			End:   roundMean(p.End, m.End),
		})
	}

	sort.Slice(confirmed, func(i, j int) bool { return confirmed[i].Start < confirmed[j].Start })
	return confirmed
}

// ConfirmChannels reduces per-channel event lists to one confirmed list.
// Sibling channels are confirmed pairwise, then the pairwise results are
// confirmed against each other until a single list remains. An odd list
// carries over to the next round unchanged; a single input is returned as-is.
func ConfirmChannels(lists [][]models.Event) []models.Event {
	switch len(lists) {
	case 0:
		return nil
	case 1:
		return append([]models.Event(nil), lists[0]...)
	}

	round := lists
	for len(round) > 1 {
		next := make([][]models.Event, 0, (len(round)+1)/2)
		for i := 0; i+1 < len(round); i += 2 {
			next = append(next, ConfirmEvents(round[i], round[i+1]))
		}
		if len(round)%2 == 1 {
			next = append(next, round[len(round)-1])
		}
		round = next
	}
	return round[0]
}

func overlap(a, b models.Event) int {
	end := a.End
	if b.End < end {
		end = b.End
	}
	start := a.Start
	if b.Start > start {
		start = b.Start
	}
	if end <= start {
		return 0
	}
	return end - start
}

func roundMean(a, b int) int {
	return int(math.Round(float64(a+b) / 2))
}

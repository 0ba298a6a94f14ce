package game

import "testing"

func TestTeamForSeat(t *testing.T) {
	for _, seat := range []int{0, 2} {
		if TeamForSeat(seat) != TeamA {
			t.Fatalf("seat %d should be team A", seat)
		}
	}
	for _, seat := range []int{1, 3} {
		if TeamForSeat(seat) != TeamB {
			t.Fatalf("seat %d should be team B", seat)
		}
	}
}

func TestScoreDealMajority(t *testing.T) {
	// Team A (seats 0,2) takes 5 tricks, trump chosen by seat 0 (team A attacking).
	res := ScoreDeal([4]int{3, 2, 2, 1}, 0)
	if res.Winner != TeamA || res.Points != 1 || res.Sweep {
		t.Fatalf("expected team A majority for 1 point, got %+v", res)
	}
}

func TestScoreDealTie(t *testing.T) {
	res := ScoreDeal([4]int{2, 2, 2, 2}, 0)
	if res.Winner != NoTeam || res.Points != 0 {
		t.Fatalf("expected scoreless 4-4 tie, got %+v", res)
	}
}

func TestScoreDealDefendingSweep(t *testing.T) {
	// Seat 1 picked trump, so team A defends and takes all 8.
	res := ScoreDeal([4]int{5, 0, 3, 0}, 1)
	if res.Winner != TeamA || res.Points != 2 || !res.Sweep {
		t.Fatalf("expected defending sweep for 2 points, got %+v", res)
	}
}

func TestScoreDealAttackingSweepNoBonus(t *testing.T) {
	// Seat 0 picked trump; team A sweeping as the attacker earns only 1.
	res := ScoreDeal([4]int{5, 0, 3, 0}, 0)
	if res.Winner != TeamA || res.Points != 1 || res.Sweep {
		t.Fatalf("attacking sweep must not earn the bonus, got %+v", res)
	}
}

func TestScoreFourDealsAccumulate(t *testing.T) {
	// Three majority wins plus a defending sweep: 1+1+1+2 = 5 points.
	scores := [2]int{}
	deals := []struct {
		tricks   [4]int
		selector int
	}{
		{[4]int{3, 1, 2, 2}, 0},
		{[4]int{4, 2, 1, 1}, 2},
		{[4]int{3, 1, 3, 1}, 0},
		{[4]int{4, 0, 4, 0}, 1}, // team A defends and sweeps
	}
	for _, d := range deals {
		res := ScoreDeal(d.tricks, d.selector)
		if res.Winner != NoTeam {
			scores[res.Winner] += res.Points
		}
	}
	if scores[TeamA] != 5 {
		t.Fatalf("expected team A at 5 points, got %d", scores[TeamA])
	}
	if scores[TeamB] != 0 {
		t.Fatalf("expected team B at 0 points, got %d", scores[TeamB])
	}
}

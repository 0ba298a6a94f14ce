package game

// Team identifies one of the two partnerships.
type Team int

const (
	TeamA Team = iota // seats 0 and 2
	TeamB             // seats 1 and 3
	NoTeam Team = -1
)

func (t Team) String() string {
	switch t {
	case TeamA:
		return "A"
	case TeamB:
		return "B"
	}
	return "none"
}

// TeamForSeat derives a seat's team from its index. This is the only
// source of the seat-to-team mapping; it is never stored.
func TeamForSeat(seat int) Team {
	if seat%2 == 0 {
		return TeamA
	}
	return TeamB
}

// Other returns the opposing team.
func (t Team) Other() Team {
	if t == TeamA {
		return TeamB
	}
	return TeamA
}

// TricksPerDeal is the number of tricks in one complete deal.
const TricksPerDeal = 8

// DealResult is the outcome of one scored deal.
type DealResult struct {
	TeamTricks [2]int `json:"teamTricks"` // indexed by Team
	Winner     Team   `json:"winner"`     // NoTeam on a 4-4 split
	Points     int    `json:"points"`
	Sweep      bool   `json:"sweep"` // defending team took all 8
}

// ScoreDeal converts a completed deal's per-seat trick tally into a point
// award. The team that selected trump is attacking; a strict majority of
// tricks wins the deal for 1 point, and the defending team sweeping all 8
// tricks earns 2.
func ScoreDeal(tricksWon [4]int, trumpSelector int) DealResult {
	var res DealResult
	for seat, n := range tricksWon {
		res.TeamTricks[TeamForSeat(seat)] += n
	}

	trumpTeam := TeamForSeat(trumpSelector)
	defending := trumpTeam.Other()

	switch {
	case res.TeamTricks[TeamA] == res.TeamTricks[TeamB]:
		res.Winner = NoTeam
	case res.TeamTricks[TeamA] > res.TeamTricks[TeamB]:
		res.Winner = TeamA
	default:
		res.Winner = TeamB
	}
	if res.Winner == NoTeam {
		return res
	}

	res.Points = 1
	if res.Winner == defending && res.TeamTricks[res.Winner] == TricksPerDeal {
		res.Points = 2
		res.Sweep = true
	}
	return res
}

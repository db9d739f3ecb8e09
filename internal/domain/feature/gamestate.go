package feature

// GameStatePolicy configures how the score line at shot time is
// reconstructed. Published definitions of "game state" disagree on own
// goals, so the choice is a knob rather than hard-coded.
type GameStatePolicy struct {
	// CountOwnGoals credits own goals to the opposing team's score line.
	// When false they are ignored entirely.
	CountOwnGoals bool
}

func DefaultGameStatePolicy() GameStatePolicy {
	return GameStatePolicy{CountOwnGoals: true}
}

// ScoreBefore returns the score from the shooting team's perspective
// immediately before the shot, scanning the match's scoring events in
// chronological order. Only events strictly earlier than the shot count, so
// a scoring shot never feeds its own game state.
func (p GameStatePolicy) ScoreBefore(scoring []ScoringEvent, shot Shot) (scoreFor, scoreAgainst int) {
	for _, g := range scoring {
		if g.MatchID != shot.MatchID {
			continue
		}
		if !g.Before(shot.MatchPeriod, shot.EventSec, shot.EventID) {
			continue
		}
		if g.OwnGoal && !p.CountOwnGoals {
			continue
		}
		forShooter := g.TeamID == shot.TeamID
		if g.OwnGoal {
			// An own goal counts for whichever team the scorer opposes.
			forShooter = !forShooter
		}
		if forShooter {
			scoreFor++
		} else {
			scoreAgainst++
		}
	}
	return scoreFor, scoreAgainst
}

// StateOf maps a score line onto the three-valued game state.
func StateOf(scoreFor, scoreAgainst int) string {
	switch {
	case scoreFor > scoreAgainst:
		return GameStateLeading
	case scoreFor < scoreAgainst:
		return GameStateTrailing
	default:
		return GameStateLevel
	}
}

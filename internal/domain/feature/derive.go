package feature

import "github.com/kvistad/shotpipe/internal/domain/event"

// Derive computes the full feature row for one shot. It is a pure function
// of the shot, its match's scoring events, and the game-state policy, so
// repeated runs over unchanged store state yield identical rows.
func Derive(shot Shot, scoring []ScoringEvent, policy GameStatePolicy) Row {
	scoreFor, scoreAgainst := policy.ScoreBefore(scoring, shot)
	return Row{
		EventID:           shot.EventID,
		MatchID:           shot.MatchID,
		Competition:       shot.Competition,
		MatchDate:         shot.MatchDate,
		TeamID:            shot.TeamID,
		PlayerID:          shot.PlayerID,
		PlayerName:        shot.PlayerName,
		MatchPeriod:       shot.MatchPeriod,
		EventSec:          shot.EventSec,
		X:                 shot.X,
		Y:                 shot.Y,
		DistanceYds:       DistanceToGoalYds(shot.X, shot.Y),
		AngleRad:          AngleToGoalRad(shot.X, shot.Y),
		ProjectedWidthYds: ProjectedWidthYds(shot.X, shot.Y),
		BodyPart:          BodyPartOf(shot.TagIDs),
		PreferredFoot:     shot.PreferredFoot,
		FootMatch:         FootMatches(shot.PreferredFoot, shot.TagIDs),
		ScoreFor:          scoreFor,
		ScoreAgainst:      scoreAgainst,
		ScoreDiff:         scoreFor - scoreAgainst,
		GameState:         StateOf(scoreFor, scoreAgainst),
		Goal:              shot.HasTag(event.TagGoal),
	}
}

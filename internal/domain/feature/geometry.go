package feature

import "math"

// Pitch geometry in yards, with source coordinates given as percent of pitch
// length (x, toward the attacked goal) and width (y). The goal center sits at
// (100, 50) regardless of the attacking direction, so one set of constants
// serves every shot. Real pitches vary in size; the largest international
// dimensions are assumed throughout.
const (
	PitchLengthYds = 120.0
	PitchWidthYds  = 80.0
	GoalMouthYds   = 8.0

	goalCenterX = 100.0
	goalCenterY = 50.0

	// Half the goal mouth in percent of pitch width: 8yd of an 80yd width.
	goalHalfMouthPct = GoalMouthYds / PitchWidthYds * 100 / 2
)

// DistanceToGoalYds returns the Euclidean distance in yards from a shot
// position to the center of the attacked goal. The axes scale differently
// because the coordinates are percentages of unequal pitch dimensions.
func DistanceToGoalYds(x, y float64) float64 {
	dx := (x - goalCenterX) * PitchLengthYds / 100
	dy := (y - goalCenterY) * PitchWidthYds / 100
	return math.Hypot(dx, dy)
}

// goalVectors returns the percent-space components of the vectors from the
// shot position to the two posts and to the goal center. The x component is
// shared by all three.
func goalVectors(x, y float64) (vx, vy1, vy2, vyMid float64) {
	vx = goalCenterX - x
	vyMid = goalCenterY - y
	vy1 = vyMid + goalHalfMouthPct
	vy2 = vyMid - goalHalfMouthPct
	return vx, vy1, vy2, vyMid
}

// angleBetween returns the angle in radians between two vectors that share
// an x component, via the arccos of their normalized dot product.
func angleBetween(x, y1, y2 float64) float64 {
	norm := math.Hypot(x, y1) * math.Hypot(x, y2)
	if norm == 0 {
		return 0
	}
	cos := (x*x + y1*y2) / norm
	// Clamp against floating point drift before arccos.
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos)
}

// AngleToGoalRad returns the angular size of the goal mouth in radians as
// seen from the shot position: the angle between the vectors to the two
// posts. A shot on the goal line between the posts sees pi; far shots
// approach zero.
func AngleToGoalRad(x, y float64) float64 {
	vx, vy1, vy2, _ := goalVectors(x, y)
	return angleBetween(vx, vy1, vy2)
}

// ProjectedWidthYds returns the goal mouth width as seen from the shot
// position, projected at the shot distance. Each post's angular offset from
// the shot-to-center line contributes |tan θ| · distance.
func ProjectedWidthYds(x, y float64) float64 {
	d := DistanceToGoalYds(x, y)
	vx, vy1, vy2, vyMid := goalVectors(x, y)
	theta1 := angleBetween(vx, vyMid, vy1)
	theta2 := angleBetween(vx, vy2, vyMid)
	return (math.Abs(math.Tan(theta1)) + math.Abs(math.Tan(theta2))) * d
}

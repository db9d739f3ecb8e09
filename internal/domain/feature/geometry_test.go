package feature

import (
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestDistanceToGoalYds(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		x, y float64
		want float64
	}{
		{name: "penalty spot", x: 90, y: 50, want: 12},
		{name: "center spot", x: 50, y: 50, want: 60},
		{name: "goal line corner", x: 100, y: 0, want: 40},
		{name: "on goal center", x: 100, y: 50, want: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DistanceToGoalYds(tc.x, tc.y)
			if !almostEqual(got, tc.want, 1e-9) {
				t.Fatalf("distance: got=%v want=%v", got, tc.want)
			}
		})
	}
}

func TestDistanceToGoalYds_ScalesAxesSeparately(t *testing.T) {
	t.Parallel()

	// Ten percent units along x span 12 yards, along y only 8: the same
	// percent offset must not yield the same distance.
	alongX := DistanceToGoalYds(90, 50)
	alongY := DistanceToGoalYds(100, 40)
	if !almostEqual(alongX, 12, 1e-9) || !almostEqual(alongY, 8, 1e-9) {
		t.Fatalf("axis scaling: alongX=%v alongY=%v", alongX, alongY)
	}
}

func TestAngleToGoalRad(t *testing.T) {
	t.Parallel()

	// For a shot straight in front of the goal the angular size of the mouth
	// is 2*atan(halfMouth/dx) in percent space.
	got := AngleToGoalRad(90, 50)
	want := 2 * math.Atan(5.0/10.0)
	if !almostEqual(got, want, 1e-12) {
		t.Fatalf("centered angle: got=%v want=%v", got, want)
	}

	if got := AngleToGoalRad(100, 50); !almostEqual(got, math.Pi, 1e-12) {
		t.Fatalf("angle on the line between the posts: got=%v want=pi", got)
	}
}

func TestAngleToGoalRad_ShrinksWithDistance(t *testing.T) {
	t.Parallel()

	near := AngleToGoalRad(95, 50)
	mid := AngleToGoalRad(85, 50)
	far := AngleToGoalRad(60, 50)
	if !(near > mid && mid > far) {
		t.Fatalf("angle not monotonically shrinking: near=%v mid=%v far=%v", near, mid, far)
	}
	if far <= 0 {
		t.Fatalf("far angle must stay positive, got %v", far)
	}
}

func TestAngleToGoalRad_SymmetricAcrossCenterline(t *testing.T) {
	t.Parallel()

	left := AngleToGoalRad(88, 42)
	right := AngleToGoalRad(88, 58)
	if !almostEqual(left, right, 1e-12) {
		t.Fatalf("angle asymmetric: left=%v right=%v", left, right)
	}
}

func TestProjectedWidthYds(t *testing.T) {
	t.Parallel()

	// Centered at the penalty spot both posts sit at atan(1/2) off the
	// center line, so the projection is tan(theta)*d per side.
	got := ProjectedWidthYds(90, 50)
	if !almostEqual(got, 12, 1e-9) {
		t.Fatalf("projected width at penalty spot: got=%v want=12", got)
	}

	left := ProjectedWidthYds(88, 42)
	right := ProjectedWidthYds(88, 58)
	if !almostEqual(left, right, 1e-9) {
		t.Fatalf("projected width asymmetric: left=%v right=%v", left, right)
	}

	// On the centerline the angular size and the distance cancel: every
	// such shot projects the full mouth.
	near := ProjectedWidthYds(95, 50)
	far := ProjectedWidthYds(60, 50)
	if !almostEqual(near, far, 1e-9) {
		t.Fatalf("centerline projection not constant: near=%v far=%v", near, far)
	}
}

package event

import "fmt"

// Tag ids used by the source dataset. Only the ids the pipeline interprets are
// named; every other id is stored verbatim with a generated label.
const (
	TagGoal         = 101
	TagOwnGoal      = 102
	TagOpportunity  = 201
	TagAssist       = 301
	TagKeyPass      = 302
	TagLeftFoot     = 401
	TagRightFoot    = 402
	TagHeadBody     = 403
	TagInterception = 1401
	TagAccurate     = 1801
	TagNotAccurate  = 1802
)

// Tag is one boolean attribute attached to an event.
type Tag struct {
	ID    int
	Label string
}

var tagLabels = map[int]string{
	TagGoal:         "goal",
	TagOwnGoal:      "own_goal",
	TagOpportunity:  "opportunity",
	TagAssist:       "assist",
	TagKeyPass:      "key_pass",
	TagLeftFoot:     "left_foot",
	TagRightFoot:    "right_foot",
	TagHeadBody:     "head_body",
	TagInterception: "interception",
	TagAccurate:     "accurate",
	TagNotAccurate:  "not_accurate",
}

// LabelFor returns the canonical label for a tag id, or "tag_<id>" for ids
// outside the documented vocabulary.
func LabelFor(tagID int) string {
	if label, ok := tagLabels[tagID]; ok {
		return label
	}
	return fmt.Sprintf("tag_%d", tagID)
}

// NewTag builds a Tag with its canonical label.
func NewTag(tagID int) Tag {
	return Tag{ID: tagID, Label: LabelFor(tagID)}
}

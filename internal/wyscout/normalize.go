package wyscout

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/kvistad/shotpipe/internal/domain/event"
	"github.com/kvistad/shotpipe/internal/domain/match"
	"github.com/kvistad/shotpipe/internal/domain/player"
)

const (
	matchDateLayout = "2006-01-02 15:04:05"
	birthDateLayout = "2006-01-02"
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationDetail extracts the first field failure from a validator error
// as a store-schema field name plus a readable reason.
func validationDetail(err error) (field, reason string) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return snakeCase(fe.Field()), fmt.Sprintf("value %v failed %q constraint", fe.Value(), fe.Tag())
	}
	return "", err.Error()
}

// snakeCase converts the camelCase json field names to the snake_case names
// used in the store schema.
func snakeCase(name string) string {
	var b strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func normalizeEvent(doc EventDocument) event.Event {
	ev := event.Event{
		ID:           doc.ID,
		MatchID:      doc.MatchID,
		TeamID:       doc.TeamID,
		PlayerID:     doc.PlayerID,
		EventName:    doc.EventName,
		SubEventName: doc.SubEventName,
		MatchPeriod:  doc.MatchPeriod,
		EventSec:     doc.EventSec,
		X1:           doc.Positions[0].X,
		Y1:           doc.Positions[0].Y,
	}
	if len(doc.Positions) > 1 {
		x2, y2 := doc.Positions[1].X, doc.Positions[1].Y
		ev.X2, ev.Y2 = &x2, &y2
	}
	seen := make(map[int]struct{}, len(doc.Tags))
	for _, t := range doc.Tags {
		// A tag entry without an id yields no tag row.
		if t.ID <= 0 {
			continue
		}
		if _, dup := seen[t.ID]; dup {
			continue
		}
		seen[t.ID] = struct{}{}
		ev.Tags = append(ev.Tags, event.NewTag(t.ID))
	}
	return ev
}

func normalizeMatch(doc MatchDocument, competition string) match.Match {
	m := match.Match{
		WyID:         doc.WyID,
		Competition:  competition,
		SeasonID:     doc.SeasonID,
		Gameweek:     doc.Gameweek,
		Label:        doc.Label,
		Venue:        doc.Venue,
		Status:       doc.Status,
		WinnerTeamID: doc.Winner,
		Duration:     doc.Duration,
	}
	if ts, err := time.ParseInLocation(matchDateLayout, doc.DateUTC, time.UTC); err == nil {
		m.DateUTC = &ts
	}
	for _, side := range doc.TeamsData {
		switch side.Side {
		case "home":
			m.HomeTeamID = side.TeamID
			m.HomeScore = side.Score
		case "away":
			m.AwayTeamID = side.TeamID
			m.AwayScore = side.Score
		}
	}
	return m
}

func normalizePlayer(doc PlayerDocument) player.Player {
	p := player.Player{
		WyID:          doc.WyID,
		ShortName:     doc.ShortName,
		FirstName:     doc.FirstName,
		LastName:      doc.LastName,
		Foot:          player.NormalizeFoot(doc.Foot),
		RoleCode:      doc.Role.Code,
		RoleName:      doc.Role.Name,
		HeightCM:      doc.Height,
		WeightKG:      doc.Weight,
		CurrentTeamID: doc.CurrentTeamID,
	}
	if ts, err := time.ParseInLocation(birthDateLayout, doc.BirthDate, time.UTC); err == nil {
		p.BirthDate = &ts
	}
	return p
}

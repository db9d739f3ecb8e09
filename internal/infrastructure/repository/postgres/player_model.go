package postgres

import "time"

type playerInsertModel struct {
	WyID          int64      `db:"wy_id"`
	ShortName     string     `db:"short_name"`
	FirstName     *string    `db:"first_name"`
	LastName      *string    `db:"last_name"`
	Foot          string     `db:"foot"`
	RoleCode      *string    `db:"role_code"`
	RoleName      *string    `db:"role_name"`
	BirthDate     *time.Time `db:"birth_date"`
	HeightCM      *int       `db:"height_cm"`
	WeightKG      *int       `db:"weight_kg"`
	CurrentTeamID *int64     `db:"current_team_id"`
}

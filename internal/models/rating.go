package models

// TeamRating holds attack and defense strength coefficients for a team,
// both centered at 1.0 (a league-average side).
type TeamRating struct {
	Attack  float64 `json:"attack" validate:"gt=0"`
	Defense float64 `json:"defense" validate:"gt=0"`
}

// NeutralRating returns the default rating used for unknown teams.
func NeutralRating() TeamRating {
	return TeamRating{Attack: 1.0, Defense: 1.0}
}

// IsNeutral reports whether the rating equals the unknown-team default.
func (r TeamRating) IsNeutral() bool {
	return r.Attack == 1.0 && r.Defense == 1.0
}

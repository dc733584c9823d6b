package models

// ResolutionStatus is the typed result of matching a free-text query to a game.
type ResolutionStatus string

const (
	ResolutionFound     ResolutionStatus = "found"
	ResolutionNotFound  ResolutionStatus = "not_found"
	ResolutionAmbiguous ResolutionStatus = "ambiguous"
)

// Resolution carries the matched record, or the candidates when several games
// matched equally well.
type Resolution struct {
	Status     ResolutionStatus `json:"status"`
	Query      string           `json:"query"`
	Record     *GameRecord      `json:"game,omitempty"`
	Candidates []GameRecord     `json:"candidates,omitempty"`
}

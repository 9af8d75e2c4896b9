package model

import (
	"fmt"
	"time"
)

// Player is global to the provider. It is not scoped to a league or user,
// so the same player record is shared by every league that references it.
type Player struct {
	ID                int32
	ExternalKey       string // e.g. 453.p.6743
	ExternalID        string
	Name              string
	FirstName         string
	LastName          string
	Position          string
	EligiblePositions []string
	Team              string
	UniformNumber     *int
	Status            string
	InjuryStatus      string
	ImageURL          string
	Stats             *PlayerStats
	LastSyncedAt      time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsGoalie reports whether G is among the player's eligible positions.
func (p *Player) IsGoalie() bool {
	if p.Position == "G" {
		return true
	}
	for _, pos := range p.EligiblePositions {
		if pos == "G" {
			return true
		}
	}
	return false
}

// PlayerStats holds the hockey categories Yahoo reports for a player.
// Skater and goalie categories share the struct; a field the provider did
// not report stays nil.
type PlayerStats struct {
	Week *int `json:"week,omitempty"`

	GamesPlayed        *int     `json:"gamesPlayed,omitempty"`
	Goals              *int     `json:"goals,omitempty"`
	Assists            *int     `json:"assists,omitempty"`
	Points             *int     `json:"points,omitempty"`
	PlusMinus          *int     `json:"plusMinus,omitempty"`
	PIM                *int     `json:"pim,omitempty"`
	PowerPlayGoals     *int     `json:"powerPlayGoals,omitempty"`
	PowerPlayPoints    *int     `json:"powerPlayPoints,omitempty"`
	ShorthandedGoals   *int     `json:"shorthandedGoals,omitempty"`
	ShorthandedPoints  *int     `json:"shorthandedPoints,omitempty"`
	GameWinningGoals   *int     `json:"gameWinningGoals,omitempty"`
	ShotsOnGoal        *int     `json:"shotsOnGoal,omitempty"`
	ShootingPercentage *float64 `json:"shootingPercentage,omitempty"`
	FaceoffsWon        *int     `json:"faceoffsWon,omitempty"`
	FaceoffsLost       *int     `json:"faceoffsLost,omitempty"`
	Hits               *int     `json:"hits,omitempty"`
	Blocks             *int     `json:"blocks,omitempty"`

	Wins                *int     `json:"wins,omitempty"`
	Losses              *int     `json:"losses,omitempty"`
	Ties                *int     `json:"ties,omitempty"`
	GoalsAgainst        *int     `json:"goalsAgainst,omitempty"`
	GoalsAgainstAverage *float64 `json:"goalsAgainstAverage,omitempty"`
	Saves               *int     `json:"saves,omitempty"`
	SavePercentage      *float64 `json:"savePercentage,omitempty"`
	Shutouts            *int     `json:"shutouts,omitempty"`
}

func formatRecord(w, l, t int) string {
	return fmt.Sprintf("%d-%d-%d", w, l, t)
}

package yahoo

import "github.com/youcodecowboy/fantasy-hockey-analysis/platforms/yahoo/tree"

// TeamStats maps team categories to Yahoo stat ids.
var TeamStats = tree.StatLookup{
	"pointsFor":     "1",
	"pointsAgainst": "2",
	"wins":          "7",
	"losses":        "8",
	"ties":          "9",
}

// PlayerStats maps NHL player categories to Yahoo stat ids. Skater and
// goalie categories share the table; ids do not overlap.
var PlayerStats = tree.StatLookup{
	"goals":               "1",
	"assists":             "2",
	"points":              "3",
	"plusMinus":           "4",
	"pim":                 "5",
	"powerPlayGoals":      "6",
	"powerPlayPoints":     "8",
	"shorthandedGoals":    "9",
	"shorthandedPoints":   "10",
	"gameWinningGoals":    "12",
	"shotsOnGoal":         "14",
	"shootingPercentage":  "15",
	"faceoffsWon":         "16",
	"faceoffsLost":        "17",
	"wins":                "19",
	"losses":              "20",
	"ties":                "21",
	"goalsAgainst":        "22",
	"goalsAgainstAverage": "23",
	"saves":               "25",
	"savePercentage":      "26",
	"shutouts":            "27",
	"gamesPlayed":         "29",
	"hits":                "31",
	"blocks":              "32",
}

package espn

import "fmt"

// Maps resolves ESPN numeric ids to display names.
type Maps struct {
	SlotName  map[int]string // lineup slot id -> "QB", "RB", "Bench", ...
	PosName   map[int]string // defaultPositionId -> position name
	ProName   map[int]string // proTeamId -> "Kansas City Chiefs"
	ProAbbrev map[int]string // proTeamId -> "KC"
}

// BuildMaps derives id-to-name maps from league settings. When the settings
// carry no proTeams (some view combinations omit them), the static NFL table
// below fills in.
func BuildMaps(s Settings) Maps {
	m := Maps{
		SlotName:  make(map[int]string),
		PosName:   make(map[int]string),
		ProName:   make(map[int]string),
		ProAbbrev: make(map[int]string),
	}

	for _, sc := range s.SlotCategoryInfo {
		if sc.Name == "" {
			continue
		}
		m.SlotName[sc.ID] = sc.Name
		for _, pid := range sc.PositionIDs {
			m.PosName[pid] = sc.Name
		}
	}

	for _, t := range s.ProTeams {
		full := t.Location + " " + t.Name
		if t.Location == "" && t.Name == "" {
			if t.Abbrev != "" {
				full = t.Abbrev
			} else {
				full = fmt.Sprintf("ProTeam %d", t.ID)
			}
		}
		m.ProName[t.ID] = full
		if t.Abbrev != "" {
			m.ProAbbrev[t.ID] = t.Abbrev
		} else {
			m.ProAbbrev[t.ID] = full
		}
	}

	if len(m.ProName) == 0 {
		m.ProName = nflTeamNames
		m.ProAbbrev = nflTeamAbbrevs
	}

	return m
}

// Slot returns the display name for a lineup slot id.
func (m Maps) Slot(id int) string {
	if name, ok := m.SlotName[id]; ok {
		return name
	}
	return fmt.Sprintf("%d", id)
}

// Pos returns the display name for a default position id.
func (m Maps) Pos(id int) string {
	if name, ok := m.PosName[id]; ok {
		return name
	}
	return fmt.Sprintf("%d", id)
}

// Pro returns the NFL team name for a pro team id.
func (m Maps) Pro(id int) string {
	if name, ok := m.ProName[id]; ok {
		return name
	}
	return fmt.Sprintf("ProTeam %d", id)
}

// Abbrev returns the NFL team abbreviation for a pro team id.
func (m Maps) Abbrev(id int) string {
	return m.ProAbbrev[id]
}

// ESPN pro team ids are stable; ids 31 and 32 are unused.
var nflTeamNames = map[int]string{
	1: "Atlanta Falcons", 2: "Buffalo Bills", 3: "Chicago Bears", 4: "Cincinnati Bengals",
	5: "Cleveland Browns", 6: "Dallas Cowboys", 7: "Denver Broncos", 8: "Detroit Lions",
	9: "Green Bay Packers", 10: "Tennessee Titans", 11: "Indianapolis Colts", 12: "Kansas City Chiefs",
	13: "Las Vegas Raiders", 14: "Los Angeles Rams", 15: "Miami Dolphins", 16: "Minnesota Vikings",
	17: "New England Patriots", 18: "New Orleans Saints", 19: "New York Giants", 20: "New York Jets",
	21: "Philadelphia Eagles", 22: "Arizona Cardinals", 23: "Pittsburgh Steelers", 24: "Los Angeles Chargers",
	25: "San Francisco 49ers", 26: "Seattle Seahawks", 27: "Tampa Bay Buccaneers", 28: "Washington Commanders",
	29: "Carolina Panthers", 30: "Jacksonville Jaguars", 33: "Baltimore Ravens", 34: "Houston Texans",
}

var nflTeamAbbrevs = map[int]string{
	1: "ATL", 2: "BUF", 3: "CHI", 4: "CIN", 5: "CLE", 6: "DAL", 7: "DEN", 8: "DET",
	9: "GB", 10: "TEN", 11: "IND", 12: "KC", 13: "LV", 14: "LAR", 15: "MIA", 16: "MIN",
	17: "NE", 18: "NO", 19: "NYG", 20: "NYJ", 21: "PHI", 22: "ARI", 23: "PIT", 24: "LAC",
	25: "SF", 26: "SEA", 27: "TB", 28: "WSH", 29: "CAR", 30: "JAX", 33: "BAL", 34: "HOU",
}

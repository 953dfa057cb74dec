package espn

// LeagueResponse is the subset of the ESPN league endpoint payload this
// service reads. The endpoint returns one large object shaped by the
// requested views.
type LeagueResponse struct {
	ID              int            `json:"id"`
	ScoringPeriodID int            `json:"scoringPeriodId"`
	Settings        Settings       `json:"settings"`
	Teams           []Team         `json:"teams"`
	Schedule        []ScheduleItem `json:"schedule"`
}

// Settings holds league metadata from the mSettings view.
type Settings struct {
	Name             string         `json:"name"`
	SlotCategoryInfo []SlotCategory `json:"slotCategoryInfo"`
	ProTeams         []ProTeam      `json:"proTeams"`
}

// SlotCategory maps a lineup slot id to its display name. PositionIDs lists
// the player default positions eligible for the slot.
type SlotCategory struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	PositionIDs []int  `json:"positionIds"`
}

// ProTeam is an NFL team entry from settings.
type ProTeam struct {
	ID       int    `json:"id"`
	Location string `json:"location"`
	Name     string `json:"name"`
	Abbrev   string `json:"abbrev"`
}

// Team is a fantasy team with its roster (mTeam + mRoster views).
type Team struct {
	ID       int        `json:"id"`
	Location string     `json:"location"`
	Nickname string     `json:"nickname"`
	Record   TeamRecord `json:"record"`
	Roster   Roster     `json:"roster"`
}

// TeamRecord holds win/loss records.
type TeamRecord struct {
	Overall OverallRecord `json:"overall"`
}

// OverallRecord is the season-to-date record.
type OverallRecord struct {
	Wins          int     `json:"wins"`
	Losses        int     `json:"losses"`
	Ties          int     `json:"ties"`
	PointsFor     float64 `json:"pointsFor"`
	PointsAgainst float64 `json:"pointsAgainst"`
}

// Roster holds lineup entries.
type Roster struct {
	Entries []RosterEntry `json:"entries"`
}

// RosterEntry is one slot assignment on a roster.
type RosterEntry struct {
	LineupSlotID    int             `json:"lineupSlotId"`
	PlayerPoolEntry PlayerPoolEntry `json:"playerPoolEntry"`
}

// PlayerPoolEntry wraps the player object.
type PlayerPoolEntry struct {
	Player Player `json:"player"`
}

// Player is an NFL player with stat lines.
type Player struct {
	ID                int          `json:"id"`
	FullName          string       `json:"fullName"`
	DefaultPositionID int          `json:"defaultPositionId"`
	ProTeamID         int          `json:"proTeamId"`
	InjuryStatus      string       `json:"injuryStatus"`
	Stats             []PlayerStat `json:"stats"`
}

// PlayerStat is one stat line. statSourceId 1 means projection, 0 actual.
type PlayerStat struct {
	StatSourceID    int     `json:"statSourceId"`
	ScoringPeriodID int     `json:"scoringPeriodId"`
	AppliedTotal    float64 `json:"appliedTotal"`
}

// ScheduleItem is one matchup from the mMatchupScore view.
type ScheduleItem struct {
	MatchupPeriodID int         `json:"matchupPeriodId"`
	Home            MatchupSide `json:"home"`
	Away            MatchupSide `json:"away"`
}

// MatchupSide is one side of a matchup.
type MatchupSide struct {
	TeamID      int     `json:"teamId"`
	TotalPoints float64 `json:"totalPoints"`
}

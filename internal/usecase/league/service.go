// Package league turns raw ESPN league payloads into resolved roster and
// matchup views.
package league

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/sideline-ai/sideline/internal/domain"
	"github.com/sideline-ai/sideline/internal/transport/espn"
)

// fetcher is the consumer interface for the ESPN client (ISP).
type fetcher interface {
	FetchRoster(ctx context.Context, teamID, week int) (*espn.LeagueResponse, error)
	FetchMatchups(ctx context.Context, week int) (*espn.LeagueResponse, error)
}

// RosterRow is one roster slot with all ids resolved to names.
type RosterRow struct {
	Slot      string  `json:"slot"`
	Player    string  `json:"player"`
	Position  string  `json:"position"`
	NFLTeam   string  `json:"nfl_team"`
	NFLAbbrev string  `json:"nfl_abbrev"`
	Projected float64 `json:"projected"`
	Injury    string  `json:"injury,omitempty"`
}

// Roster is a team's lineup for a scoring period.
type Roster struct {
	TeamName string      `json:"team_name"`
	Week     int         `json:"week"`
	Rows     []RosterRow `json:"rows"`
}

// MatchupTeam is one side of a weekly matchup.
type MatchupTeam struct {
	TeamID         int     `json:"team_id"`
	Name           string  `json:"name"`
	Record         string  `json:"record"`
	Score          float64 `json:"score"`
	ProjectedTotal float64 `json:"projected_total"`
	WinProbability int     `json:"win_probability"`
}

// Matchup is the configured team's matchup for a scoring period.
type Matchup struct {
	Week int         `json:"week"`
	Home MatchupTeam `json:"home"`
	Away MatchupTeam `json:"away"`
}

// Service resolves rosters and matchups for the configured team.
type Service struct {
	client fetcher
	teamID int
	logger *zap.Logger
}

// NewService creates a league service. teamID is the dashboard owner's team.
func NewService(client fetcher, teamID int, logger *zap.Logger) *Service {
	return &Service{client: client, teamID: teamID, logger: logger}
}

// Roster fetches and resolves the configured team's roster.
// week 0 means the league's current scoring period.
func (s *Service) Roster(ctx context.Context, week int) (*Roster, error) {
	if s.teamID <= 0 {
		return nil, fmt.Errorf("team id is not set: %w", domain.ErrLeagueNotConfigured)
	}

	league, err := s.client.FetchRoster(ctx, s.teamID, week)
	if err != nil {
		return nil, fmt.Errorf("fetch roster: %w", err)
	}
	if len(league.Teams) == 0 {
		return nil, fmt.Errorf("league returned no teams: %w", domain.ErrTeamNotFound)
	}

	team := findTeam(league.Teams, s.teamID)
	if team == nil {
		// Roster-filtered responses sometimes return only the requested team.
		team = &league.Teams[0]
	}

	if week <= 0 {
		week = league.ScoringPeriodID
	}

	maps := espn.BuildMaps(league.Settings)
	rows := make([]RosterRow, 0, len(team.Roster.Entries))
	for _, e := range team.Roster.Entries {
		p := e.PlayerPoolEntry.Player
		rows = append(rows, RosterRow{
			Slot:      maps.Slot(e.LineupSlotID),
			Player:    p.FullName,
			Position:  maps.Pos(p.DefaultPositionID),
			NFLTeam:   maps.Pro(p.ProTeamID),
			NFLAbbrev: maps.Abbrev(p.ProTeamID),
			Projected: projectedPoints(p.Stats, week),
			Injury:    p.InjuryStatus,
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Slot != rows[j].Slot {
			return rows[i].Slot < rows[j].Slot
		}
		return rows[i].Player < rows[j].Player
	})

	return &Roster{TeamName: teamName(*team), Week: week, Rows: rows}, nil
}

// Matchup fetches the configured team's matchup for the scoring period.
func (s *Service) Matchup(ctx context.Context, week int) (*Matchup, error) {
	if s.teamID <= 0 {
		return nil, fmt.Errorf("team id is not set: %w", domain.ErrLeagueNotConfigured)
	}

	league, err := s.client.FetchMatchups(ctx, week)
	if err != nil {
		return nil, fmt.Errorf("fetch matchups: %w", err)
	}

	if week <= 0 {
		week = league.ScoringPeriodID
	}

	for _, item := range league.Schedule {
		if item.MatchupPeriodID != week {
			continue
		}
		if item.Home.TeamID != s.teamID && item.Away.TeamID != s.teamID {
			continue
		}
		m := &Matchup{
			Week: week,
			Home: matchupTeam(league.Teams, item.Home, week),
			Away: matchupTeam(league.Teams, item.Away, week),
		}
		m.Home.WinProbability, m.Away.WinProbability = winProbability(m.Home.ProjectedTotal, m.Away.ProjectedTotal)
		return m, nil
	}

	return nil, fmt.Errorf("no matchup for team %d in week %d: %w", s.teamID, week, domain.ErrTeamNotFound)
}

// FindPlayer searches the configured team's roster by name, case-insensitive
// substring match. Used to enrich AI prompts with live projections.
func (s *Service) FindPlayer(ctx context.Context, name string) (*RosterRow, error) {
	roster, err := s.Roster(ctx, 0)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return nil, fmt.Errorf("empty player name: %w", domain.ErrPlayerNotFound)
	}
	for i := range roster.Rows {
		if strings.Contains(strings.ToLower(roster.Rows[i].Player), needle) {
			return &roster.Rows[i], nil
		}
	}
	return nil, fmt.Errorf("player %q not on roster: %w", name, domain.ErrPlayerNotFound)
}

func findTeam(teams []espn.Team, id int) *espn.Team {
	for i := range teams {
		if teams[i].ID == id {
			return &teams[i]
		}
	}
	return nil
}

func matchupTeam(teams []espn.Team, side espn.MatchupSide, week int) MatchupTeam {
	mt := MatchupTeam{
		TeamID: side.TeamID,
		Name:   fmt.Sprintf("Team %d", side.TeamID),
		Score:  side.TotalPoints,
	}
	if t := findTeam(teams, side.TeamID); t != nil {
		mt.Name = teamName(*t)
		r := t.Record.Overall
		mt.Record = fmt.Sprintf("%d-%d-%d", r.Wins, r.Losses, r.Ties)
		mt.ProjectedTotal = starterProjection(t.Roster.Entries, week)
	}
	return mt
}

// Bench and IR lineup slots are excluded from starter projections.
const benchSlotID = 20

// starterProjection sums projected points over lineup starters.
func starterProjection(entries []espn.RosterEntry, week int) float64 {
	var total float64
	for _, e := range entries {
		if e.LineupSlotID >= benchSlotID {
			continue
		}
		total += projectedPoints(e.PlayerPoolEntry.Player.Stats, week)
	}
	return total
}

// winProbability splits 100 points proportionally to projected totals.
// An even 50/50 when neither side projects any points.
func winProbability(home, away float64) (int, int) {
	total := home + away
	if total <= 0 {
		return 50, 50
	}
	h := int(100 * home / total)
	return h, 100 - h
}

func teamName(t espn.Team) string {
	name := strings.TrimSpace(strings.TrimSpace(t.Location) + " " + strings.TrimSpace(t.Nickname))
	if name == "" {
		return fmt.Sprintf("Team %d", t.ID)
	}
	return name
}

// projectedPoints picks the projection (statSourceId 1) for the given week,
// falling back to season projection divided by 17 as a rough weekly average.
func projectedPoints(stats []espn.PlayerStat, week int) float64 {
	for _, st := range stats {
		if st.StatSourceID == 1 && st.ScoringPeriodID == week && st.AppliedTotal != 0 {
			return st.AppliedTotal
		}
	}
	for _, st := range stats {
		if st.StatSourceID == 1 && st.ScoringPeriodID != week {
			return st.AppliedTotal / 17
		}
	}
	return 0
}

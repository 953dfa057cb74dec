package espn

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
)

const leagueFixture = `{
	"id": 1866946053,
	"scoringPeriodId": 3,
	"settings": {
		"name": "Test League",
		"slotCategoryInfo": [
			{"id": 0, "name": "QB", "positionIds": [1]},
			{"id": 2, "name": "RB", "positionIds": [2]},
			{"id": 20, "name": "Bench", "positionIds": []}
		],
		"proTeams": [
			{"id": 12, "location": "Kansas City", "name": "Chiefs", "abbrev": "KC"}
		]
	},
	"teams": [
		{
			"id": 8,
			"location": "Woody",
			"nickname": "Marks",
			"record": {"overall": {"wins": 2, "losses": 1, "ties": 0, "pointsFor": 310.5, "pointsAgainst": 290.2}},
			"roster": {"entries": [
				{
					"lineupSlotId": 0,
					"playerPoolEntry": {"player": {
						"id": 3139477,
						"fullName": "Patrick Mahomes",
						"defaultPositionId": 1,
						"proTeamId": 12,
						"injuryStatus": "ACTIVE",
						"stats": [
							{"statSourceId": 1, "scoringPeriodId": 3, "appliedTotal": 22.4},
							{"statSourceId": 0, "scoringPeriodId": 2, "appliedTotal": 18.1}
						]
					}}
				}
			]}
		}
	],
	"schedule": [
		{"matchupPeriodId": 3, "home": {"teamId": 8, "totalPoints": 101.2}, "away": {"teamId": 3, "totalPoints": 95.7}}
	]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewClient(Config{
		LeagueID:   1866946053,
		SeasonYear: 2025,
		ESPNS2:     "s2-token",
		SWID:       "{SWID-VALUE}",
		BaseURL:    srv.URL,
	}, zap.NewNop())
	return client, srv
}

func TestFetchRoster_DecodesLeaguePayload(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(leagueFixture))
	})

	league, err := client.FetchRoster(context.Background(), 8, 3)
	if err != nil {
		t.Fatalf("FetchRoster: %v", err)
	}

	if league.ID != 1866946053 {
		t.Errorf("league id = %d, want 1866946053", league.ID)
	}
	if len(league.Teams) != 1 {
		t.Fatalf("teams = %d, want 1", len(league.Teams))
	}

	entries := league.Teams[0].Roster.Entries
	if len(entries) != 1 {
		t.Fatalf("roster entries = %d, want 1", len(entries))
	}
	player := entries[0].PlayerPoolEntry.Player
	if player.FullName != "Patrick Mahomes" {
		t.Errorf("player = %q, want Patrick Mahomes", player.FullName)
	}
	if player.Stats[0].StatSourceID != 1 || player.Stats[0].AppliedTotal != 22.4 {
		t.Errorf("unexpected projection stat: %+v", player.Stats[0])
	}
}

func TestFetchRoster_SendsCookiesViewsAndParams(t *testing.T) {
	var gotReq *http.Request
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotReq = r.Clone(r.Context())
		_, _ = w.Write([]byte(`{}`))
	})

	if _, err := client.FetchRoster(context.Background(), 8, 3); err != nil {
		t.Fatalf("FetchRoster: %v", err)
	}

	if !strings.Contains(gotReq.URL.Path, "/seasons/2025/segments/0/leagues/1866946053") {
		t.Errorf("unexpected path %q", gotReq.URL.Path)
	}

	q := gotReq.URL.Query()
	if q.Get("rosterForTeamId") != "8" {
		t.Errorf("rosterForTeamId = %q, want 8", q.Get("rosterForTeamId"))
	}
	if q.Get("scoringPeriodId") != "3" {
		t.Errorf("scoringPeriodId = %q, want 3", q.Get("scoringPeriodId"))
	}

	views := q["view"]
	wantViews := map[string]bool{"mRoster": false, "mSettings": false, "mTeam": false}
	for _, v := range views {
		if _, ok := wantViews[v]; ok {
			wantViews[v] = true
		}
	}
	for v, seen := range wantViews {
		if !seen {
			t.Errorf("missing view %q in query", v)
		}
	}

	if c, err := gotReq.Cookie("ESPN_S2"); err != nil || c.Value != "s2-token" {
		t.Errorf("ESPN_S2 cookie missing or wrong: %v", c)
	}
	if c, err := gotReq.Cookie("SWID"); err != nil || c.Value != "{SWID-VALUE}" {
		t.Errorf("SWID cookie missing or wrong: %v", c)
	}
	if gotReq.Header.Get("x-fantasy-source") != "kona" {
		t.Error("missing x-fantasy-source header")
	}
}

func TestFetchMatchups_OmitsWeekWhenZero(t *testing.T) {
	var gotQuery string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{}`))
	})

	if _, err := client.FetchMatchups(context.Background(), 0); err != nil {
		t.Fatalf("FetchMatchups: %v", err)
	}
	if strings.Contains(gotQuery, "scoringPeriodId") {
		t.Errorf("week 0 should omit scoringPeriodId, got query %q", gotQuery)
	}
}

func TestFetchRoster_HTMLErrorSnippet(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("<html>\n<body>Not authorized</body>\n</html>"))
	})

	_, err := client.FetchRoster(context.Background(), 8, 1)
	if err == nil {
		t.Fatal("expected error for 401 response")
	}
	if !strings.Contains(err.Error(), "401") {
		t.Errorf("error should carry the status code: %v", err)
	}
	if !strings.Contains(err.Error(), "Not authorized") {
		t.Errorf("error should carry a body snippet: %v", err)
	}
	if strings.Contains(err.Error(), "\n") {
		t.Errorf("snippet should collapse newlines: %q", err.Error())
	}
}

func TestBuildMaps_FromSettings(t *testing.T) {
	m := BuildMaps(Settings{
		SlotCategoryInfo: []SlotCategory{
			{ID: 0, Name: "QB", PositionIDs: []int{1}},
			{ID: 20, Name: "Bench"},
		},
		ProTeams: []ProTeam{
			{ID: 12, Location: "Kansas City", Name: "Chiefs", Abbrev: "KC"},
		},
	})

	if m.Slot(0) != "QB" {
		t.Errorf("Slot(0) = %q, want QB", m.Slot(0))
	}
	if m.Slot(99) != "99" {
		t.Errorf("Slot(99) = %q, want fallback '99'", m.Slot(99))
	}
	if m.Pos(1) != "QB" {
		t.Errorf("Pos(1) = %q, want QB", m.Pos(1))
	}
	if m.Pro(12) != "Kansas City Chiefs" {
		t.Errorf("Pro(12) = %q", m.Pro(12))
	}
	if m.Abbrev(12) != "KC" {
		t.Errorf("Abbrev(12) = %q, want KC", m.Abbrev(12))
	}
}

func TestBuildMaps_StaticFallbackWhenNoProTeams(t *testing.T) {
	m := BuildMaps(Settings{})

	if m.Pro(12) != "Kansas City Chiefs" {
		t.Errorf("Pro(12) = %q, want static fallback", m.Pro(12))
	}
	if m.Abbrev(2) != "BUF" {
		t.Errorf("Abbrev(2) = %q, want BUF", m.Abbrev(2))
	}
	if m.Pro(31) != "ProTeam 31" {
		t.Errorf("Pro(31) = %q, want unused-id fallback", m.Pro(31))
	}
}

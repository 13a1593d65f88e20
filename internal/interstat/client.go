// Package interstat fetches men's college basketball day scoreboards from
// the Interstat API and flattens them into team-game rows, two per game.
package interstat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/reaganking/cbb-preds/internal/models"
)

// Client provides access to the Interstat scoreboard API.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	maxRetries     int
	retryDelayBase time.Duration
}

// scoreboardResponse is the day scoreboard payload. Games are keyed by an
// opaque string id; the payload shape varies enough between seasons that
// loosely typed fields are decoded with json.Number coercion below.
type scoreboardResponse struct {
	Games map[string]scoreboardGame `json:"games"`
}

type scoreboardGame struct {
	ID        any             `json:"id"`
	Gameday   string          `json:"gameday"`
	Status    string          `json:"status"`
	StartTime string          `json:"starttime"`
	Score     *scoreboardMeta `json:"score"`
	Venue     *venueInfo      `json:"venue"`
	Attend    any             `json:"attendance"`
	Visitor   *sideInfo       `json:"visitor"`
	Home      *sideInfo       `json:"home"`
}

type scoreboardMeta struct {
	Overtime any `json:"overtime"`
}

type venueInfo struct {
	Name      string `json:"name"`
	CityState string `json:"citystate"`
	Neutral   string `json:"neutral"` // "Y" when played on a neutral floor
}

// sideInfo is one side of a game. IDs and scores arrive as numbers on some
// days and strings on others.
type sideInfo struct {
	ID       any    `json:"id"`
	Code     string `json:"code"`
	Team     string `json:"team"`
	FullName string `json:"team_fullname"`
	Score    any    `json:"score"`
}

// NewClient creates a new Interstat client.
func NewClient(baseURL string, timeout time.Duration, maxRetries int, retryDelayBase time.Duration) *Client {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}
}

// FetchDay retrieves the scoreboard for a date and returns two rows per
// game, the visitor row first. Games without a parseable game id or team
// ids are skipped. A day with no games returns an empty slice, not an
// error.
func (c *Client) FetchDay(ctx context.Context, date time.Time) ([]models.TeamGameRow, error) {
	dateStr := date.Format(models.DateLayout)
	url := fmt.Sprintf("%s/game/mbb/%s", c.baseURL, dateStr)

	resp, err := c.doRequest(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch scoreboard for %s: %w", dateStr, err)
	}
	defer resp.Body.Close()

	var payload scoreboardResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode scoreboard for %s: %w", dateStr, err)
	}

	var rows []models.TeamGameRow
	for _, g := range payload.Games {
		gameRows, ok := flattenGame(g, date)
		if !ok {
			continue
		}
		rows = append(rows, gameRows...)
	}

	// Map iteration order is random; fix it so snapshots are reproducible.
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].GameID != rows[j].GameID {
			return rows[i].GameID < rows[j].GameID
		}
		return !rows[i].IsHome && rows[j].IsHome
	})

	return rows, nil
}

// flattenGame turns one scoreboard game into its visitor and home rows.
func flattenGame(g scoreboardGame, fallbackDate time.Time) ([]models.TeamGameRow, bool) {
	gameID, ok := toInt64(g.ID)
	if !ok || gameID <= 0 {
		return nil, false
	}
	if g.Visitor == nil || g.Home == nil {
		return nil, false
	}
	visitorID := models.TeamIDOf(g.Visitor.ID)
	homeID := models.TeamIDOf(g.Home.ID)
	if visitorID == "" || homeID == "" {
		return nil, false
	}

	gameDate := fallbackDate
	if g.Gameday != "" {
		if d, err := models.ParseDate(g.Gameday); err == nil {
			gameDate = d
		}
	}

	base := models.TeamGameRow{
		Date:      gameDate,
		GameID:    gameID,
		Season:    models.SeasonStartYear(gameDate),
		Status:    g.Status,
		StartTime: g.StartTime,
	}
	if g.Venue != nil {
		base.VenueName = g.Venue.Name
		base.CityState = g.Venue.CityState
		base.Neutral = g.Venue.Neutral == "Y"
	}
	if g.Score != nil {
		base.Overtime = toIntPtr(g.Score.Overtime)
	}
	base.Attendance = toIntPtr(g.Attend)

	visitorPts := toIntPtr(g.Visitor.Score)
	homePts := toIntPtr(g.Home.Score)

	visitor := base
	visitor.IsHome = false
	visitor.TeamID = visitorID
	visitor.TeamCode = g.Visitor.Code
	visitor.TeamName = sideName(g.Visitor)
	visitor.OppID = homeID
	visitor.OppCode = g.Home.Code
	visitor.OppName = sideName(g.Home)
	visitor.Pts = visitorPts
	visitor.OppPts = homePts

	home := base
	home.IsHome = true
	home.TeamID = homeID
	home.TeamCode = g.Home.Code
	home.TeamName = sideName(g.Home)
	home.OppID = visitorID
	home.OppCode = g.Visitor.Code
	home.OppName = sideName(g.Visitor)
	home.Pts = homePts
	home.OppPts = visitorPts

	return []models.TeamGameRow{visitor, home}, true
}

func sideName(s *sideInfo) string {
	if s.FullName != "" {
		return s.FullName
	}
	return s.Team
}

// toInt64 coerces a loosely typed JSON value into an int64.
func toInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case nil:
		return 0, false
	case float64:
		return int64(x), true
	case int64:
		return x, true
	case int:
		return int64(x), true
	case json.Number:
		n, err := x.Int64()
		if err != nil {
			f, ferr := x.Float64()
			if ferr != nil {
				return 0, false
			}
			return int64(f), true
		}
		return n, true
	case string:
		if x == "" {
			return 0, false
		}
		n, err := strconv.ParseInt(x, 10, 64)
		if err != nil {
			f, ferr := strconv.ParseFloat(x, 64)
			if ferr != nil {
				return 0, false
			}
			return int64(f), true
		}
		return n, true
	default:
		return 0, false
	}
}

func toIntPtr(v any) *int {
	n, ok := toInt64(v)
	if !ok {
		return nil
	}
	i := int(n)
	return &i
}

// doRequest performs an HTTP GET with retry and linear backoff.
func (c *Client) doRequest(ctx context.Context, urlStr string) (*http.Response, error) {
	var lastErr error

	for i := 0; i < c.maxRetries; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(i) * c.retryDelayBase):
			}
		}

		req, err := http.NewRequestWithContext(ctx, "GET", urlStr, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json, */*")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
		}

		return resp, nil
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

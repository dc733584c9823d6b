// Package hockeyref reads final scores from the hockey-reference season
// schedule page.
package hockeyref

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/ktwom22/nhl-bot/internal/models"
)

const seasonURLFormat = "https://www.hockey-reference.com/leagues/NHL_%d_games.html"

// Column data-stat attributes of the schedule table.
const (
	statDate      = "date_game"
	statVisitor   = "visitor_team_name"
	statVisitorG  = "visitor_goals"
	statHome      = "home_team_name"
	statHomeGoals = "home_goals"
)

// SeasonURL returns the schedule page of the season containing day. Seasons
// are named by the year they end in; a season starts in the fall, so July
// onwards belongs to the next year's season.
func SeasonURL(day time.Time) string {
	year := day.Year()
	if day.Month() >= time.July {
		year++
	}
	return fmt.Sprintf(seasonURLFormat, year)
}

type Scraper struct {
	url        string
	loc        *time.Location
	now        func() time.Time
	httpClient *http.Client
	userAgent  string
}

// NewScraper reads url, or the current season's page in loc when url is empty.
func NewScraper(url string, loc *time.Location, timeout time.Duration) *Scraper {
	if loc == nil {
		loc = time.UTC
	}
	return &Scraper{
		url:        url,
		loc:        loc,
		now:        time.Now,
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  "nhl-bot/1.0 (+results reconciliation)",
	}
}

func (s *Scraper) pageURL() string {
	if s.url != "" {
		return s.url
	}
	return SeasonURL(s.now().In(s.loc))
}

// FetchScores downloads the schedule page and returns every game with a
// final score.
func (s *Scraper) FetchScores(ctx context.Context) ([]models.FinalScore, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.pageURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch results page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("results page returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return Parse(resp.Body)
}

// Parse extracts scored games from schedule table rows. Repeated header rows
// and games not yet played are skipped.
func Parse(r io.Reader) ([]models.FinalScore, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse results page: %w", err)
	}

	var scores []models.FinalScore
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			if score, ok := parseRow(n); ok {
				scores = append(scores, score)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return scores, nil
}

func parseRow(tr *html.Node) (models.FinalScore, bool) {
	cells := make(map[string]string)
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || (c.Data != "td" && c.Data != "th") {
			continue
		}
		if stat := attr(c, "data-stat"); stat != "" {
			cells[stat] = strings.TrimSpace(text(c))
		}
	}

	away, home := cells[statVisitor], cells[statHome]
	if away == "" || home == "" {
		return models.FinalScore{}, false
	}
	awayGoals, err := strconv.Atoi(cells[statVisitorG])
	if err != nil {
		return models.FinalScore{}, false
	}
	homeGoals, err := strconv.Atoi(cells[statHomeGoals])
	if err != nil {
		return models.FinalScore{}, false
	}

	score := models.FinalScore{
		AwayTeam:  away,
		HomeTeam:  home,
		AwayGoals: awayGoals,
		HomeGoals: homeGoals,
		Completed: true,
	}
	if d, err := time.Parse(models.DateLayout, cells[statDate]); err == nil {
		score.Date = d.Format(models.DateLayout)
	}
	return score, true
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func text(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(text(c))
	}
	return b.String()
}

// Command seeder writes a sample games file for the current league day and
// can send a test message to a running server's webhook.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ktwom22/nhl-bot/internal/ingest"
	"github.com/ktwom22/nhl-bot/internal/models"
	"github.com/ktwom22/nhl-bot/internal/store"
)

const (
	defaultGamesFile  = "data/nhl_tonight_model_ready.csv"
	defaultWebhookURL = "http://localhost:10000/whatsapp"
)

type sampleGame struct {
	away, home       string
	start            string
	homePct, awayPct float64
	goalDiff         float64
	homeGF, awayGF   float64
	total            float64
}

var samples = []sampleGame{
	{"Boston Bruins", "Toronto Maple Leafs", "19:00", 0.58, 0.42, 0.4, 3.4, 2.9, 6.5},
	{"New York Rangers", "Carolina Hurricanes", "19:00", 0.55, 0.45, 0.2, 3.1, 2.8, 5.5},
	{"Montréal Canadiens", "New York Islanders", "19:30", 0.52, 0.48, -0.1, 2.7, 2.9, 5.5},
	{"Colorado Avalanche", "Dallas Stars", "20:00", 0.47, 0.53, -2.5, 3.0, 3.6, 6.5},
}

func main() {
	gamesFile := flag.String("games", defaultGamesFile, "games file to write")
	zone := flag.String("tz", "America/New_York", "league time zone")
	send := flag.String("send", "", "message body to post to the webhook after seeding")
	webhook := flag.String("webhook", defaultWebhookURL, "webhook URL for -send")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	loc, err := time.LoadLocation(*zone)
	if err != nil {
		log.Fatalf("Invalid time zone %q: %v", *zone, err)
	}
	day, _, _ := ingest.LeagueDay(time.Now(), loc)

	records := make([]models.GameRecord, 0, len(samples))
	for i, s := range samples {
		records = append(records, models.GameRecord{
			GameDate:        day,
			AwayTeam:        s.away,
			HomeTeam:        s.home,
			StartTimeLocal:  s.start,
			EventID:         fmt.Sprintf("seed-%s-%d", day, i+1),
			HomeWinPct:      models.Float(s.homePct),
			AwayWinPct:      models.Float(s.awayPct),
			GoalDiffMatchup: models.Float(s.goalDiff),
			HomeGoalsFor:    models.Float(s.homeGF),
			AwayGoalsFor:    models.Float(s.awayGF),
			HomeSpread:      models.Float(-1.5),
			AwaySpread:      models.Float(1.5),
			TotalLine:       models.Float(s.total),
		})
	}

	if err := store.NewGamesTable(logger).WriteFile(*gamesFile, records); err != nil {
		log.Fatalf("Failed to write games file: %v", err)
	}
	fmt.Printf("Wrote %d games for %s to %s\n", len(records), day, *gamesFile)

	if *send == "" {
		return
	}

	form := url.Values{
		"Body": {*send},
		"From": {"whatsapp:+15555550100"},
	}
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Post(*webhook, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		log.Fatalf("Failed to send request: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	fmt.Printf("Status: %s\n", resp.Status)
	fmt.Printf("Response: %s\n", string(body))

	if resp.StatusCode == http.StatusOK {
		fmt.Println("✅ Webhook replied")
	} else {
		fmt.Println("❌ Webhook failed")
	}
}

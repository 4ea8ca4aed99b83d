package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"

	"apptracker/internal/auth"
	"apptracker/internal/config"
	"apptracker/internal/db"
	apperrors "apptracker/internal/errors"
	"apptracker/internal/logger"
	"apptracker/internal/model"
	"apptracker/internal/repository"
	"apptracker/internal/service"
)

// SeedApplication is one entry of a seed file.
type SeedApplication struct {
	Company  string  `json:"company"`
	Role     string  `json:"role"`
	Status   *string `json:"status"`
	Location string  `json:"location"`
	Referral bool    `json:"referral"`
	Source   string  `json:"source"`
	Notes    string  `json:"notes"`
}

func strPtr(s string) *string { return &s }

var sampleApplications = []SeedApplication{
	{Company: "Stripe", Role: "SWE Intern", Location: "Remote", Source: "LinkedIn"},
	{Company: "Datadog", Role: "Backend Intern", Status: strPtr("oa"), Location: "New York", Source: "Career fair"},
	{Company: "Cloudflare", Role: "Systems Intern", Status: strPtr("interview"), Location: "Austin", Referral: true, Source: "Referral", Notes: "Second round scheduled"},
	{Company: "Figma", Role: "Product Engineering Intern", Status: strPtr("rejected"), Location: "San Francisco", Source: "Company site"},
	{Company: "Ramp", Role: "SWE Intern", Status: strPtr("offer"), Location: "New York", Referral: true, Source: "Referral", Notes: "Offer deadline in two weeks"},
}

func main() {
	email := flag.String("email", "demo@apptracker.dev", "demo account email")
	password := flag.String("password", "demo-password", "demo account password")
	file := flag.String("file", "", "JSON file with an array of applications")
	url := flag.String("url", "", "URL serving a JSON array of applications")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("load config")
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	ctx := log.WithContext(context.Background())

	gormDB, err := db.Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("connect to database")
	}
	if err := db.Migrate(gormDB, cfg.ResetDB); err != nil {
		log.Fatal().Err(err).Msg("run migrations")
	}

	apps, err := loadApplications(*file, *url)
	if err != nil {
		log.Fatal().Err(err).Msg("load seed data")
	}
	log.Info().Int("count", len(apps)).Msg("seed data loaded")

	jwtService := auth.NewJWTService(cfg.JWTSecret)
	authService := service.NewAuthService(repository.NewUserRepository(gormDB), jwtService, nil)
	applicationService := service.NewApplicationService(repository.NewApplicationRepository(gormDB))

	ownerID, err := demoAccount(ctx, authService, *email, *password)
	if err != nil {
		log.Fatal().Err(err).Str("email", *email).Msg("prepare demo account")
	}

	created, skipped := 0, 0
	for _, item := range apps {
		in := model.NewApplication{
			Company:  item.Company,
			Role:     item.Role,
			Location: item.Location,
			Referral: item.Referral,
			Source:   item.Source,
			Notes:    item.Notes,
		}
		if item.Status != nil {
			st := model.Status(*item.Status)
			in.Status = &st
		}
		if _, err := applicationService.Create(ctx, ownerID, in); err != nil {
			log.Warn().Err(err).Str("company", item.Company).Msg("skipping application")
			skipped++
			continue
		}
		created++
	}

	log.Info().Uint("user_id", ownerID).Int("created", created).Int("skipped", skipped).Msg("seed completed")
}

// demoAccount registers the demo user, or logs in when it already exists.
func demoAccount(ctx context.Context, authService service.AuthService, email, password string) (uint, error) {
	id, _, err := authService.Register(ctx, email, password)
	if errors.Is(err, apperrors.ErrEmailExists) {
		id, _, err = authService.Login(ctx, email, password)
	}
	return id, err
}

func loadApplications(file, url string) ([]SeedApplication, error) {
	switch {
	case file != "":
		f, err := os.Open(file)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return decodeApplications(f)
	case url != "":
		return fetchApplications(url)
	default:
		return sampleApplications, nil
	}
}

func fetchApplications(url string) ([]SeedApplication, error) {
	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	return decodeApplications(resp.Body)
}

func decodeApplications(r io.Reader) ([]SeedApplication, error) {
	var apps []SeedApplication
	if err := json.NewDecoder(r).Decode(&apps); err != nil {
		return nil, fmt.Errorf("decode applications: %w", err)
	}
	return apps, nil
}

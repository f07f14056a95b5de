package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"cricketpark/internal/database"
	"cricketpark/internal/models"
	"cricketpark/internal/service"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

type venueSeed struct {
	Name            string `yaml:"name"`
	Address         string `yaml:"address"`
	City            string `yaml:"city"`
	State           string `yaml:"state"`
	ZipCode         string `yaml:"zip_code"`
	ContactNumber   string `yaml:"contact_number"`
	Email           string `yaml:"email"`
	PricePerHour    int64  `yaml:"price_per_hour"`
	NumberOfPitches int    `yaml:"number_of_pitches"`
}

type seedFile struct {
	Venues []venueSeed `yaml:"venues"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	var (
		venuesPath = flag.String("venues", "configs/venues.yaml", "path to venues.yaml")
		dbPath     = flag.String("db", "./data/cricketpark.db", "path to sqlite db")
	)
	flag.Parse()

	data, err := os.ReadFile(*venuesPath)
	if err != nil {
		return fmt.Errorf("read venues: %w", err)
	}
	var seeds seedFile
	if err = yaml.Unmarshal(data, &seeds); err != nil {
		return fmt.Errorf("parse venues: %w", err)
	}
	if len(seeds.Venues) == 0 {
		return fmt.Errorf("no venues in yaml")
	}

	db, err := database.NewDB(*dbPath, &logger)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	venues := service.NewVenueService(db, nil, nil, &logger)
	existing, err := venues.List(ctx)
	if err != nil {
		return fmt.Errorf("list venues: %w", err)
	}
	byName := make(map[string]int64, len(existing))
	for _, v := range existing {
		byName[strings.ToLower(v.Name)] = v.ID
	}

	created, updated := 0, 0
	for _, seed := range seeds.Venues {
		if strings.TrimSpace(seed.Name) == "" {
			continue
		}
		if id, ok := byName[strings.ToLower(strings.TrimSpace(seed.Name))]; ok {
			if _, err := venues.Update(ctx, id, service.VenueUpdate{
				Address:         &seed.Address,
				City:            &seed.City,
				State:           &seed.State,
				ZipCode:         &seed.ZipCode,
				ContactNumber:   &seed.ContactNumber,
				Email:           &seed.Email,
				PricePerHour:    &seed.PricePerHour,
				NumberOfPitches: &seed.NumberOfPitches,
			}); err != nil {
				return fmt.Errorf("update %s: %w", seed.Name, err)
			}
			updated++
			continue
		}
		if _, err := venues.Create(ctx, &models.Venue{
			Name:            seed.Name,
			Address:         seed.Address,
			City:            seed.City,
			State:           seed.State,
			ZipCode:         seed.ZipCode,
			ContactNumber:   seed.ContactNumber,
			Email:           seed.Email,
			PricePerHour:    seed.PricePerHour,
			NumberOfPitches: seed.NumberOfPitches,
		}); err != nil {
			return fmt.Errorf("create %s: %w", seed.Name, err)
		}
		created++
	}

	fmt.Printf("done: created=%d updated=%d\n", created, updated)
	return nil
}

// Copyright 2026 © The Anemos Authors
// SPDX-License-Identifier: Apache-2.0

// Package warehouse is the local archive of historical severe weather:
// flood events, hurricane tracks, and daily temperature extremes, kept in
// SQLite and seeded from an embedded dataset snapshot.
package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "modernc.org/sqlite"
)

// Store runs the archive queries the data responder needs.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the archive at path and ensures its schema.
// An empty path opens an in-memory archive.
func Open(path string) (*Store, error) {
	dsn := path
	if dsn == "" {
		dsn = ":memory:"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if path == "" {
		// Keep the in-memory database on a single connection.
		db.SetMaxOpenConns(1)
	}
	store, err := NewStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewStore wraps an open database and ensures the archive schema.
func NewStore(db *sql.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("db is nil")
	}
	if err := ensureArchiveSchema(db); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// SeedIfEmpty loads the dataset into an empty archive. A populated
// archive is left untouched.
func (s *Store) SeedIfEmpty(ctx context.Context, data *Dataset) error {
	if data == nil {
		return nil
	}

	empty, err := s.empty(ctx)
	if err != nil {
		return err
	}
	if !empty {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range data.FloodEvents {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO flood_events (state, year, month, max_precipitation_mm, flood_events, affected_population)
			VALUES (?, ?, ?, ?, ?, ?)
		`, e.State, e.Year, e.Month, e.MaxPrecipitationMM, e.EventCount, e.AffectedPopulation); err != nil {
			return err
		}
	}
	for _, h := range data.HurricaneTracks {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO hurricane_tracks (name, season, iso_time, lat, lon, wind_kts, pressure, category, dist2land)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, h.Name, h.Season, h.ISOTime, h.Lat, h.Lon, h.WindKts, h.Pressure, h.Category, h.DistToLand); err != nil {
			return err
		}
	}
	for _, d := range data.DailyExtremes {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO daily_extremes (state, date, temperature_max, temperature_min, heat_index)
			VALUES (?, ?, ?, ?, ?)
		`, d.State, d.Date, d.TemperatureMax, d.TemperatureMin, d.HeatIndex); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// FloodEvents returns the heaviest recorded flood events for a state.
func (s *Store) FloodEvents(ctx context.Context, state string) ([]FloodEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT state, year, month, max_precipitation_mm, flood_events, affected_population
		FROM flood_events
		WHERE state = ?
		ORDER BY max_precipitation_mm DESC
		LIMIT 50
	`, state)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []FloodEvent
	for rows.Next() {
		var e FloodEvent
		if err := rows.Scan(&e.State, &e.Year, &e.Month, &e.MaxPrecipitationMM, &e.EventCount, &e.AffectedPopulation); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// MajorHurricanes returns category 3+ tracks that came within 100 miles
// of land over the last ten seasons, strongest first.
func (s *Store) MajorHurricanes(ctx context.Context) ([]HurricaneTrack, error) {
	cutoff := time.Now().Year() - 10
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, season, iso_time, lat, lon, wind_kts, pressure, category, dist2land
		FROM hurricane_tracks
		WHERE season >= ? AND category >= 3 AND dist2land <= 100
		ORDER BY wind_kts DESC
		LIMIT 20
	`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tracks []HurricaneTrack
	for rows.Next() {
		var h HurricaneTrack
		if err := rows.Scan(&h.Name, &h.Season, &h.ISOTime, &h.Lat, &h.Lon, &h.WindKts, &h.Pressure, &h.Category, &h.DistToLand); err != nil {
			return nil, err
		}
		tracks = append(tracks, h)
	}
	return tracks, rows.Err()
}

// ExtremeHeatDays returns days above 100°F for a state over the last
// five years, hottest first.
func (s *Store) ExtremeHeatDays(ctx context.Context, state string) ([]HeatDay, error) {
	cutoff := time.Now().UTC().AddDate(-5, 0, 0).Format("2006-01-02")
	rows, err := s.db.QueryContext(ctx, `
		SELECT state, date, temperature_max, temperature_min, heat_index
		FROM daily_extremes
		WHERE date >= ? AND temperature_max > 100 AND state = ?
		ORDER BY temperature_max DESC
		LIMIT 30
	`, cutoff, state)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var days []HeatDay
	for rows.Next() {
		var d HeatDay
		if err := rows.Scan(&d.State, &d.Date, &d.TemperatureMax, &d.TemperatureMin, &d.HeatIndex); err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

// Ping reports whether the archive is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) empty(ctx context.Context) (bool, error) {
	for _, table := range []string{"flood_events", "hurricane_tracks", "daily_extremes"} {
		var n int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&n); err != nil {
			return false, err
		}
		if n > 0 {
			return false, nil
		}
	}
	return true, nil
}

func ensureArchiveSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS flood_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			state TEXT NOT NULL,
			year INTEGER NOT NULL,
			month INTEGER NOT NULL,
			max_precipitation_mm REAL NOT NULL,
			flood_events INTEGER NOT NULL,
			affected_population INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_flood_events_state ON flood_events(state);

		CREATE TABLE IF NOT EXISTS hurricane_tracks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			season INTEGER NOT NULL,
			iso_time TEXT NOT NULL,
			lat REAL NOT NULL,
			lon REAL NOT NULL,
			wind_kts INTEGER NOT NULL,
			pressure INTEGER NOT NULL,
			category INTEGER NOT NULL,
			dist2land INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_hurricane_tracks_season ON hurricane_tracks(season);

		CREATE TABLE IF NOT EXISTS daily_extremes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			state TEXT NOT NULL,
			date TEXT NOT NULL,
			temperature_max REAL NOT NULL,
			temperature_min REAL NOT NULL,
			heat_index REAL NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_daily_extremes_state ON daily_extremes(state);
	`)
	return err
}

// Copyright ChurchNet contributors.
// SPDX-License-Identifier: MIT

package main

import (
	"flag"
	"log/slog"
	"os"
	"strconv"

	"github.com/churchnet/calendar-service/internal/infrastructure/email"
	"github.com/churchnet/calendar-service/internal/infrastructure/providers/oauthcal"
	"github.com/churchnet/calendar-service/internal/logging"
)

// flags are the command line flags for the calendar service.
type flags struct {
	Debug bool
	Port  string
	Bind  string
}

// environment are the environment variables for the calendar service.
type environment struct {
	Port                 string
	NatsURL              string
	FirstApproverUID     string
	FirstApproverEmail   string
	FinalApproverUID     string
	FinalApproverEmail   string
	SyncWorkerCount      int
	NotificationsEnabled bool
	SMTP                 email.SMTPConfig
	Google               oauthcal.Config
	Outlook              oauthcal.Config
}

// parseFlags parses command line flags for the calendar service.
func parseFlags(defaultPort string) flags {
	var debug = flag.Bool("d", false, "enable debug logging")
	var port = flag.String("p", defaultPort, "listen port")
	var bind = flag.String("bind", "*", "interface to bind on")

	flag.Usage = func() {
		flag.PrintDefaults()
		os.Exit(2)
	}
	flag.Parse()

	// Based on the debug flag, set the log level environment variable used by [logging.InitStructureLogConfig]
	if *debug {
		err := os.Setenv("LOG_LEVEL", "debug")
		if err != nil {
			slog.With(logging.ErrKey, err).Error("error setting log level")
			os.Exit(1)
		}
	}

	return flags{
		Debug: *debug,
		Port:  *port,
		Bind:  *bind,
	}
}

// parseEnv parses environment variables for the calendar service.
func parseEnv() environment {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	natsURL := os.Getenv("NATS_URL")
	if natsURL == "" {
		natsURL = "nats://localhost:4222"
	}

	firstApproverUID := os.Getenv("FIRST_APPROVER_UID")
	if firstApproverUID == "" {
		slog.Error("FIRST_APPROVER_UID environment variable is required but not set")
		os.Exit(1)
	}

	finalApproverUID := os.Getenv("FINAL_APPROVER_UID")
	if finalApproverUID == "" {
		slog.Error("FINAL_APPROVER_UID environment variable is required but not set")
		os.Exit(1)
	}

	syncWorkerCount := 4
	if raw := os.Getenv("SYNC_WORKER_COUNT"); raw != "" {
		count, err := strconv.Atoi(raw)
		if err != nil || count < 1 {
			slog.With("value", raw).Error("invalid SYNC_WORKER_COUNT, using default")
		} else {
			syncWorkerCount = count
		}
	}

	return environment{
		Port:                 port,
		NatsURL:              natsURL,
		FirstApproverUID:     firstApproverUID,
		FirstApproverEmail:   os.Getenv("FIRST_APPROVER_EMAIL"),
		FinalApproverUID:     finalApproverUID,
		FinalApproverEmail:   os.Getenv("FINAL_APPROVER_EMAIL"),
		SyncWorkerCount:      syncWorkerCount,
		NotificationsEnabled: os.Getenv("NOTIFICATIONS_ENABLED") == "true",
		SMTP:                 parseSMTPConfig(),
		Google:               parseOAuthProviderConfig("google", "GOOGLE_CALENDAR"),
		Outlook:              parseOAuthProviderConfig("outlook", "OUTLOOK_CALENDAR"),
	}
}

// parseSMTPConfig parses SMTP configuration from environment variables.
// An empty host means email notifications fall back to the no-op service.
func parseSMTPConfig() email.SMTPConfig {
	port := 587
	if raw := os.Getenv("SMTP_PORT"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			slog.With("value", raw).Error("invalid SMTP_PORT, using default")
		} else {
			port = parsed
		}
	}

	return email.SMTPConfig{
		Host:     os.Getenv("SMTP_HOST"),
		Port:     port,
		From:     os.Getenv("SMTP_FROM"),
		Username: os.Getenv("SMTP_USERNAME"),
		Password: os.Getenv("SMTP_PASSWORD"),
	}
}

// parseOAuthProviderConfig parses one OAuth provider's configuration from
// environment variables sharing the given prefix. A provider with no client
// ID is simply not registered.
func parseOAuthProviderConfig(name, prefix string) oauthcal.Config {
	return oauthcal.Config{
		Name:         name,
		ClientID:     os.Getenv(prefix + "_CLIENT_ID"),
		ClientSecret: os.Getenv(prefix + "_CLIENT_SECRET"),
		AuthURL:      os.Getenv(prefix + "_AUTH_URL"),
		BaseURL:      os.Getenv(prefix + "_BASE_URL"),
	}
}

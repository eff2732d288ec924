package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port          int
	NatsURL       string
	NatsToken     string
	DatabaseURL   string
	LogLevel      string
	FeedPath      string
	StatePath     string
	PollSeconds   int
	SlackBotToken string
	SlackChannel  string

	// Momentum policy. Clamping and the trend-window mechanics are fixed;
	// the deltas themselves are tunable per deployment.
	HelpfulDelta          int
	HarmfulDelta          int
	BonusLow              int
	BonusMedium           int
	BonusHigh             int
	ContradictedDiscount  float64
	TrendWindow           int
	KeyAdmissionThreshold int
	ConcessionStreak      int
	CountExploited        bool
}

func Load() Config {
	return Config{
		Port:          envInt("GAVEL_PORT", 8760),
		NatsURL:       envStr("NATS_URL", "nats://hermes:4222"),
		NatsToken:     envStr("NATS_TOKEN", ""),
		DatabaseURL:   envStr("DATABASE_URL", ""),
		LogLevel:      envStr("LOG_LEVEL", "info"),
		FeedPath:      envStr("GAVEL_FEED", ""),
		StatePath:     envStr("GAVEL_STATE", "~/.openclaw/workspace/gavel-trial-state.json"),
		PollSeconds:   envInt("GAVEL_POLL_SECONDS", 5),
		SlackBotToken: envStr("SLACK_BOT_TOKEN", ""),
		SlackChannel:  envStr("SLACK_WARROOM_CHANNEL", ""),

		HelpfulDelta:          envInt("GAVEL_HELPFUL_DELTA", 3),
		HarmfulDelta:          envInt("GAVEL_HARMFUL_DELTA", 4),
		BonusLow:              envInt("GAVEL_BONUS_LOW", 2),
		BonusMedium:           envInt("GAVEL_BONUS_MEDIUM", 4),
		BonusHigh:             envInt("GAVEL_BONUS_HIGH", 6),
		ContradictedDiscount:  envFloat("GAVEL_CONTRADICTED_DISCOUNT", 0.5),
		TrendWindow:           envInt("GAVEL_TREND_WINDOW", 5),
		KeyAdmissionThreshold: envInt("GAVEL_ADMISSION_THRESHOLD", 4),
		ConcessionStreak:      envInt("GAVEL_CONCESSION_STREAK", 3),
		CountExploited:        envBool("GAVEL_COUNT_EXPLOITED", true),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

/*
Package config loads runtime configuration from the environment.

PURPOSE:
  One struct for both binaries. Values come from environment variables
  (struct tags via caarlos0/env); a local .env file is loaded first when
  present, so development setups don't need to export anything.

SECRETS:
  API keys are read from the environment only — never flags, never
  files checked into the repo.
*/
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds every tunable for the shop server and the grant giver.
type Config struct {
	// Storage
	DBPath string `env:"SHOP_DB_PATH" envDefault:"shop.db"`

	// HTTP server
	ListenAddr string `env:"SHOP_LISTEN_ADDR" envDefault:":8080"`

	// HCB payment system
	HCBAPIKey string `env:"HCB_API_KEY"`
	HCBOrgURL string `env:"HCB_ORG_URL" envDefault:"https://hcbapi.skyfall.dev/api/v4/organizations/boba-drops"`

	// Slack identity lookups
	SlackBotToken string `env:"SLACK_BOT_TOKEN"`

	// Airtable allow-list
	AirtableAPIKey string `env:"AIRTABLE_API_KEY"`
	AirtableBaseID string `env:"AIRTABLE_BASE_ID" envDefault:"app1sLnxuQNDBZNju"`
	AirtableTable  string `env:"AIRTABLE_TABLE_NAME" envDefault:"tblsbrzyPghuKgMyz"`

	// Mail fulfillment
	MailAPIKey string `env:"MAIL_API_KEY"`

	// Grant giver
	ExportDir      string `env:"GRANT_EXPORT_DIR" envDefault:"."`
	ResolveWorkers int    `env:"GRANT_RESOLVE_WORKERS" envDefault:"8"`
}

// Load reads .env (if present) and the environment.
func Load() (*Config, error) {
	// Missing .env is fine; a malformed one is not silently ignored
	// beyond that.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &cfg, nil
}

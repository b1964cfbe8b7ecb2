/*
main.go - Grant giver entry point

PURPOSE:
  Runs one budgeted grant allocation batch: asks the operator whether to
  apply the external approval filter, wires the store and external
  clients into the grant runner, prints the report, and writes the
  audit export.

EXIT CODES:
  0  Run completed (including the nothing-to-do case)
  1  Unrecovered error on the mandatory path (budget, orders, export)

OPERATION:
  This is a single-operator batch tool. Mark a run's orders fulfilled
  or rejected before running it again, or the same pending orders will
  be counted twice.

ENVIRONMENT:
  HCB_API_KEY, HCB_ORG_URL, SLACK_BOT_TOKEN, AIRTABLE_API_KEY,
  AIRTABLE_BASE_ID, AIRTABLE_TABLE_NAME, SHOP_DB_PATH,
  GRANT_EXPORT_DIR, GRANT_RESOLVE_WORKERS — see config/config.go.

SEE ALSO:
  - grants/runner.go: The pipeline this wires up
*/
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tokenshop/grant-engine/airtable"
	"github.com/tokenshop/grant-engine/config"
	"github.com/tokenshop/grant-engine/grants"
	"github.com/tokenshop/grant-engine/hcb"
	"github.com/tokenshop/grant-engine/slackapi"
	"github.com/tokenshop/grant-engine/store/sqlite"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if cfg.HCBAPIKey == "" {
		log.Fatal().Msg("HCB_API_KEY is required")
	}
	if cfg.SlackBotToken == "" {
		log.Fatal().Msg("SLACK_BOT_TOKEN is required")
	}

	st, err := sqlite.New(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer st.Close()

	fmt.Println("=== HCB Grant Giver ===")
	fmt.Println()

	useAllowList := promptYesNo("Only include users with approved submissions? (y/n): ")
	if !useAllowList {
		fmt.Println("Proceeding without allow-list filtering...")
	}

	var allowList grants.AllowListSource
	if cfg.AirtableAPIKey != "" {
		allowList = &airtable.Client{
			APIKey: cfg.AirtableAPIKey,
			BaseID: cfg.AirtableBaseID,
			Table:  cfg.AirtableTable,
			Log:    log.With().Str("component", "airtable").Logger(),
		}
	} else if useAllowList {
		log.Warn().Msg("AIRTABLE_API_KEY not set, continuing without filtering")
		useAllowList = false
	}

	runner := &grants.Runner{
		Budget: &hcb.Client{
			OrgURL: cfg.HCBOrgURL,
			APIKey: cfg.HCBAPIKey,
			Log:    log.With().Str("component", "hcb").Logger(),
		},
		Orders: st,
		Resolver: &slackapi.Client{
			BotToken: cfg.SlackBotToken,
			Log:      log.With().Str("component", "slack").Logger(),
		},
		AllowList:      allowList,
		Exporter:       &grants.FileExporter{Dir: cfg.ExportDir},
		ResolveWorkers: cfg.ResolveWorkers,
		Log:            log.With().Str("component", "grants").Logger(),
	}

	_, err = runner.Run(context.Background(), os.Stdout, grants.Options{UseAllowList: useAllowList})
	if errors.Is(err, grants.ErrNoPendingOrders) {
		fmt.Println("No pending grant orders found. Nothing to process.")
		return
	}
	if err != nil {
		log.Fatal().Err(err).Msg("grant run failed")
	}
}

// promptYesNo reads one line from stdin; y/yes (any case) means yes,
// anything else — including EOF — means no.
func promptYesNo(question string) bool {
	fmt.Print(question)
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return answer == "y" || answer == "yes"
}

package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/divisual/leadgen-cli/internal/fetch"
	"github.com/divisual/leadgen-cli/internal/leadstore"
	"github.com/divisual/leadgen-cli/internal/pipeline"
	"github.com/divisual/leadgen-cli/internal/store"
	"github.com/divisual/leadgen-cli/pkg/anthropic"
	"github.com/divisual/leadgen-cli/pkg/gmail"
	"github.com/divisual/leadgen-cli/pkg/places"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "leadgen.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func initLeadStore(ctx context.Context) (leadstore.Store, error) {
	switch cfg.Leads.Driver {
	case "sheets":
		if cfg.Sheets.AccessToken == "" {
			return nil, eris.New("sheets access token is required (LEADGEN_SHEETS_ACCESS_TOKEN)")
		}
		if cfg.Sheets.SpreadsheetID == "" {
			return nil, eris.New("spreadsheet ID is required (LEADGEN_SHEETS_SPREADSHEET_ID)")
		}
		return leadstore.NewSheets(ctx, cfg.Sheets.AccessToken, cfg.Sheets.SpreadsheetID)
	case "notion":
		if cfg.Notion.Token == "" {
			return nil, eris.New("notion token is required (LEADGEN_NOTION_TOKEN)")
		}
		databases := map[string]string{
			leadTab():            cfg.Notion.LeadDB,
			leadstore.TabPrompts: cfg.Notion.PromptDB,
			leadstore.TabConfig:  cfg.Notion.ConfigDB,
			leadstore.TabLogs:    cfg.Notion.LogDB,
		}
		return leadstore.NewNotion(cfg.Notion.Token, databases), nil
	default:
		return nil, eris.Errorf("unsupported leads driver: %s", cfg.Leads.Driver)
	}
}

func initPipeline(ctx context.Context) (*pipeline.Pipeline, error) {
	leads, err := initLeadStore(ctx)
	if err != nil {
		return nil, err
	}

	if cfg.Anthropic.Key == "" {
		return nil, eris.New("anthropic API key is required (LEADGEN_ANTHROPIC_KEY)")
	}
	if cfg.Places.Key == "" {
		return nil, eris.New("places API key is required (LEADGEN_PLACES_KEY)")
	}

	gmailToken := cfg.Gmail.AccessToken
	if gmailToken == "" {
		gmailToken = cfg.Sheets.AccessToken
	}
	if gmailToken == "" {
		return nil, eris.New("gmail access token is required (LEADGEN_GMAIL_ACCESS_TOKEN)")
	}
	sender, err := gmail.NewClient(ctx, gmailToken)
	if err != nil {
		return nil, err
	}

	return pipeline.New(
		cfg,
		leads,
		places.NewClient(cfg.Places.Key),
		anthropic.NewClient(cfg.Anthropic.Key),
		sender,
		fetch.New(),
	), nil
}

func leadTab() string {
	if cfg.Sheets.LeadTab != "" {
		return cfg.Sheets.LeadTab
	}
	return "LEADS"
}

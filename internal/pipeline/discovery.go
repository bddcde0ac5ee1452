package pipeline

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/divisual/leadgen-cli/internal/extract"
	"github.com/divisual/leadgen-cli/internal/leadstore"
	"github.com/divisual/leadgen-cli/internal/model"
	"github.com/divisual/leadgen-cli/pkg/anthropic"
)

// DiscoveryParams configures one discovery run.
type DiscoveryParams struct {
	Tab    string // lead tab name
	Niche  string // explicit override; else CONFIG, else generated
	City   string
	Prompt string // search-directive prompt override
	OnLog  func(string)
}

// DiscoveryResult is the outcome of a discovery run. Log carries the full
// ordered run narrative even when the run aborted.
type DiscoveryResult struct {
	TotalUpserted int
	Log           []string
}

// RunDiscovery searches places for the niche+city phrase, scrapes each
// candidate site for a contact email, and upserts one lead row per site that
// yielded one. Per-candidate failures are logged and skipped; search or
// directive-parse failures abort the run.
func (p *Pipeline) RunDiscovery(ctx context.Context, params DiscoveryParams) (*DiscoveryResult, error) {
	log := NewLog(params.OnLog)
	res := &DiscoveryResult{}
	defer func() { res.Log = log.Lines() }()

	kvPrompts, err := p.leads.ReadKV(ctx, leadstore.TabPrompts)
	if err != nil {
		return res, eris.Wrap(err, "discovery: read prompts")
	}
	kvConfig, err := p.leads.ReadKV(ctx, leadstore.TabConfig)
	if err != nil {
		return res, eris.Wrap(err, "discovery: read config")
	}

	prompt := params.Prompt
	if prompt == "" {
		prompt = kvPrompts[PromptKeyDiscovery]
	}
	if prompt == "" {
		prompt = DefaultDiscoveryPrompt(kvConfig)
	}

	if err := p.leads.EnsureColumns(ctx, params.Tab, model.LeadColumns); err != nil {
		return res, eris.Wrap(err, "discovery: ensure columns")
	}

	niche := params.Niche
	if niche == "" {
		niche = kvConfig["niche"]
	}
	city := params.City
	if city == "" {
		city = kvConfig["city"]
	}

	if niche == "" || city == "" {
		log.Addf("Generando frase de búsqueda...")
		resp, err := p.ai.CreateMessage(ctx, anthropic.MessageRequest{
			Model:     p.cfg.Anthropic.Model,
			MaxTokens: 256,
			Messages:  []anthropic.Message{{Role: "user", Content: prompt}},
		})
		if err != nil {
			log.Addf("Error generando frase: %v", err)
			return res, eris.Wrap(err, "discovery: generate directive")
		}
		directive := resp.Text()
		log.Addf("Frase generada: %s", directive)

		q, err := extract.ParseNicheAndCity(directive)
		if err != nil {
			log.Addf("Error: %v", err)
			return res, eris.Wrap(err, "discovery: parse directive")
		}
		niche = q.Niche
		city = q.City
	}

	log.Addf("Buscando: %q en %q", niche, city)

	// A single external call; not worth retry complexity here.
	search, err := p.places.TextSearch(ctx, niche+" en "+city)
	if err != nil {
		log.Addf("Error en Places API: %v", err)
		return res, eris.Wrap(err, "discovery: places search")
	}
	log.Addf("Google Maps: %d resultados", len(search.Places))

	candidates := make([]extract.Place, 0, len(search.Places))
	for _, pl := range search.Places {
		if pl.WebsiteURI == "" {
			continue
		}
		candidates = append(candidates, extract.Place{
			WebsiteURI: extract.NormalizeWebURL(pl.WebsiteURI),
		})
	}
	candidates = extract.FilterBadURLs(extract.DeduplicateByWebsite(candidates))
	log.Addf("URLs después de filtros: %d", len(candidates))

	for _, candidate := range candidates {
		url := candidate.WebsiteURI
		log.Addf("Procesando: %s", url)

		if err := p.sleep(ctx, p.cfg.Discovery.PreFetchDelay()); err != nil {
			return res, eris.Wrap(err, "discovery: canceled")
		}
		html := p.fetchPage(ctx, url, p.cfg.Discovery.FetchTimeout(), p.cfg.Discovery.RetryBackoff())
		if err := p.sleep(ctx, p.cfg.Discovery.PostFetchDelay()); err != nil {
			return res, eris.Wrap(err, "discovery: canceled")
		}

		valid := make([]extract.Candidate, 0, 1)
		for _, c := range extract.Emails(html) {
			if extract.IsValidEmail(c.Email) {
				valid = append(valid, c)
			}
		}
		valid = extract.DeduplicateEmails(valid)
		if len(valid) == 0 {
			log.Addf("Sin emails válidos: %s", url)
			continue
		}

		// One record per site: the first valid email wins.
		email := valid[0].Email
		err := p.leads.UpsertRow(ctx, params.Tab, model.ColWeb, url, map[string]string{
			model.ColWeb:          url,
			model.ColCorreo:       email,
			model.ColEstado:       string(model.StatusPending),
			model.ColFechaScrapeo: nowStamp(),
		})
		if err != nil {
			return res, eris.Wrap(err, "discovery: upsert lead")
		}
		res.TotalUpserted++
		log.Addf("Lead guardado: %s → %s", email, url)
	}

	log.Addf("Discovery finalizado. %d leads escritos/actualizados.", res.TotalUpserted)
	return res, nil
}

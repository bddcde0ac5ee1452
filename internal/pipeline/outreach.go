package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/divisual/leadgen-cli/internal/extract"
	"github.com/divisual/leadgen-cli/internal/leadstore"
	"github.com/divisual/leadgen-cli/internal/model"
	"github.com/divisual/leadgen-cli/pkg/anthropic"
)

// OutreachParams configures one outreach run.
type OutreachParams struct {
	Tab    string
	Quota  int    // max sends this run; 0 → configured default
	Prompt string // icebreaker system-prompt override
	OnLog  func(string)
}

// OutreachResult is the outcome of an outreach run.
type OutreachResult struct {
	Sent int
	Log  []string
}

// Icebreaker is one generated outreach message.
type Icebreaker struct {
	Subject  string
	HTMLBody string
}

// RunOutreach sends personalized icebreakers to pending leads, up to the
// quota, annotating failures onto the row so they retry on a future run.
func (p *Pipeline) RunOutreach(ctx context.Context, params OutreachParams) (*OutreachResult, error) {
	log := NewLog(params.OnLog)
	res := &OutreachResult{}
	defer func() { res.Log = log.Lines() }()

	kvPrompts, err := p.leads.ReadKV(ctx, leadstore.TabPrompts)
	if err != nil {
		return res, eris.Wrap(err, "outreach: read prompts")
	}
	kvConfig, err := p.leads.ReadKV(ctx, leadstore.TabConfig)
	if err != nil {
		return res, eris.Wrap(err, "outreach: read config")
	}

	prompt := params.Prompt
	if prompt == "" {
		prompt = kvPrompts[PromptKeyOutreach]
	}
	if prompt == "" {
		prompt = DefaultOutreachPrompt(kvConfig)
	}

	rows, err := p.leads.ReadRows(ctx, params.Tab)
	if err != nil {
		return res, eris.Wrap(err, "outreach: read leads")
	}
	log.Addf("Total filas: %d", len(rows))

	pending := make([]model.Row, 0, len(rows))
	for _, r := range rows {
		if model.LeadFromRow(r).Pending() {
			pending = append(pending, r)
		}
	}
	log.Addf("Pendientes: %d", len(pending))
	if len(pending) == 0 {
		log.Addf("No hay leads pendientes de envío.")
		return res, nil
	}

	quota := params.Quota
	if quota <= 0 {
		quota = p.cfg.Outreach.Quota
	}
	batch := pending
	if len(batch) > quota {
		batch = batch[:quota]
	}
	log.Addf("Procesando %d de %d pendientes", len(batch), len(pending))

	// The same system prompt repeats for every lead; cache it.
	system := anthropic.BuildCachedSystemBlocks(prompt)

	for _, row := range batch {
		web := row[model.ColWeb]
		correo := row[model.ColCorreo]
		if correo == "" || web == "" {
			log.Addf("Fila sin correo o web, saltando")
			continue
		}
		log.Addf("Enviando a: %s | %s", correo, web)

		normalized, err := extract.NormalizeLeadURL(web)
		if err != nil {
			log.Addf("URL inválida: %v", err)
			continue
		}

		// A dead site still gets a message: generation runs on whatever the
		// fetch produced, empty included.
		html := p.fetchPage(ctx, normalized.CleanURL, p.cfg.Outreach.FetchTimeout(), p.cfg.Outreach.RetryBackoff())
		cleaned, cleanErr := extract.CleanHTML(html, correo, web)
		if cleanErr != nil {
			zap.L().Debug("outreach: unusable page content", zap.String("web", web), zap.Error(cleanErr))
		}

		msg, err := p.generateIcebreaker(ctx, system, cleaned)
		if err != nil {
			log.Addf("Error generando email: %v", err)
			if err := p.annotateError(ctx, params.Tab, web, fmt.Sprintf("Generation error: %v", err)); err != nil {
				return res, err
			}
			continue
		}

		if err := p.mail.Send(ctx, correo, msg.Subject, msg.HTMLBody); err != nil {
			log.Addf("Error enviando email: %v", err)
			if err := p.annotateError(ctx, params.Tab, web, fmt.Sprintf("Mail error: %v", err)); err != nil {
				return res, err
			}
			continue
		}

		err = p.leads.UpsertRow(ctx, params.Tab, model.ColWeb, web, map[string]string{
			model.ColWeb:        web,
			model.ColIcebreaker: msg.Subject,
			model.ColEstado:     string(model.StatusSent),
			model.ColFechaEnvio: nowStamp(),
		})
		if err != nil {
			return res, eris.Wrap(err, "outreach: upsert lead")
		}
		res.Sent++
		log.Addf("Email enviado: %q", msg.Subject)

		if err := p.sleep(ctx, p.cfg.Outreach.InterRowDelay()); err != nil {
			return res, eris.Wrap(err, "outreach: canceled")
		}
	}

	// Best-effort run summary; a LOGS write failure never fails the run.
	summary := fmt.Sprintf("Outreach: %d emails enviados de %d intentados", res.Sent, len(batch))
	if err := p.leads.AppendLog(ctx, time.Now().UTC(), summary); err != nil {
		zap.L().Warn("outreach: append summary failed", zap.Error(err))
	}

	log.Addf("Outreach finalizado. %d/%d emails enviados.", res.Sent, len(batch))
	return res, nil
}

// annotateError records a per-row failure without touching Estado, keeping
// the row eligible for the next run.
func (p *Pipeline) annotateError(ctx context.Context, tab, web, msg string) error {
	err := p.leads.UpsertRow(ctx, tab, model.ColWeb, web, map[string]string{
		model.ColWeb:         web,
		model.ColUltimoError: msg,
	})
	if err != nil {
		return eris.Wrap(err, "outreach: annotate error")
	}
	return nil
}

// icebreakerPayload is the JSON shape the model is instructed to return.
type icebreakerPayload struct {
	Asunto string `json:"ASUNTO"`
	HTML   string `json:"HTML"`
}

const prospectTemplate = `### DATOS DEL PROSPECTO

**Información de su negocio (extraída de su web):**
%s

**Colores de su marca (SOLO para diseño del email):**
- Primario: %s
- Secundario: %s`

func (p *Pipeline) generateIcebreaker(ctx context.Context, system []anthropic.SystemBlock, cleaned extract.CleanResult) (*Icebreaker, error) {
	user := fmt.Sprintf(prospectTemplate, cleaned.CleanText, cleaned.Primary, cleaned.Secondary)

	resp, err := p.ai.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     p.cfg.Anthropic.Model,
		MaxTokens: 2048,
		System:    system,
		Messages:  []anthropic.Message{{Role: "user", Content: user}},
	})
	if err != nil {
		return nil, eris.Wrap(err, "outreach: create message")
	}
	resp.Usage.LogCost(p.cfg.Anthropic.Model, "icebreaker")

	return parseIcebreaker(resp.Text()), nil
}

// parseIcebreaker decodes the model's JSON answer, tolerating a fenced code
// block around it. A malformed answer degrades to a placeholder message
// rather than failing the row.
func parseIcebreaker(raw string) *Icebreaker {
	trimmed := strings.TrimSpace(raw)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")

	var payload icebreakerPayload
	if err := json.Unmarshal([]byte(strings.TrimSpace(trimmed)), &payload); err != nil || payload.Asunto == "" {
		return &Icebreaker{Subject: "Sin asunto", HTMLBody: "<p>Error generando email</p>"}
	}
	return &Icebreaker{Subject: payload.Asunto, HTMLBody: payload.HTML}
}

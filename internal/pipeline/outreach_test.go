package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/divisual/leadgen-cli/internal/model"
	"github.com/divisual/leadgen-cli/pkg/anthropic"
)

func pendingRow(web, correo string) model.Row {
	return model.Row{
		model.ColWeb:    web,
		model.ColCorreo: correo,
		model.ColEstado: string(model.StatusPending),
	}
}

func icebreakerAI(subject, html string) *stubAI {
	return &stubAI{fn: func(anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
		return textResponse(`{"ASUNTO":"` + subject + `","HTML":"` + html + `"}`), nil
	}}
}

func TestRunOutreach_EndToEnd(t *testing.T) {
	leads := newMemStore()
	leads.tabs["LEADS"] = []model.Row{pendingRow("https://acme.com", "jane@acme.com")}
	ai := icebreakerAI("Hola Acme", "<p>x</p>")
	mail := new(mockSender)
	mail.On("Send", mock.Anything, "jane@acme.com", "Hola Acme", "<p>x</p>").Return(nil).Once()

	p := newTestPipeline(leads, nil, ai, mail, nil)
	res, err := p.RunOutreach(context.Background(), OutreachParams{Tab: "LEADS"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Sent)

	rows := leads.rows("LEADS")
	require.Len(t, rows, 1)
	assert.Equal(t, "Enviado", rows[0][model.ColEstado])
	assert.Equal(t, "Hola Acme", rows[0][model.ColIcebreaker])
	assert.NotEmpty(t, rows[0][model.ColFechaEnvio])
	require.Len(t, leads.logs, 1)
	assert.Contains(t, leads.logs[0], "1 emails enviados")
	mail.AssertExpectations(t)
}

func TestRunOutreach_MailFailureAnnotatesRow(t *testing.T) {
	leads := newMemStore()
	leads.tabs["LEADS"] = []model.Row{pendingRow("https://acme.com", "jane@acme.com")}
	ai := icebreakerAI("Hola", "<p>x</p>")
	mail := new(mockSender)
	mail.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(assert.AnError)

	p := newTestPipeline(leads, nil, ai, mail, nil)
	res, err := p.RunOutreach(context.Background(), OutreachParams{Tab: "LEADS"})
	require.NoError(t, err)
	assert.Zero(t, res.Sent)

	rows := leads.rows("LEADS")
	require.Len(t, rows, 1)
	assert.Equal(t, "Sin enviar", rows[0][model.ColEstado])
	assert.Contains(t, rows[0][model.ColUltimoError], "Mail error")
}

func TestRunOutreach_GenerationFailureAnnotatesRow(t *testing.T) {
	leads := newMemStore()
	leads.tabs["LEADS"] = []model.Row{pendingRow("https://acme.com", "jane@acme.com")}
	ai := &stubAI{fn: func(anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
		return nil, assert.AnError
	}}

	p := newTestPipeline(leads, nil, ai, nil, nil)
	res, err := p.RunOutreach(context.Background(), OutreachParams{Tab: "LEADS"})
	require.NoError(t, err)
	assert.Zero(t, res.Sent)

	rows := leads.rows("LEADS")
	assert.Equal(t, "Sin enviar", rows[0][model.ColEstado])
	assert.Contains(t, rows[0][model.ColUltimoError], "Generation error")
}

func TestRunOutreach_QuotaBoundsBatch(t *testing.T) {
	leads := newMemStore()
	leads.tabs["LEADS"] = []model.Row{
		pendingRow("https://a.com", "a@a.com"),
		pendingRow("https://b.com", "b@b.com"),
		pendingRow("https://c.com", "c@c.com"),
	}
	ai := icebreakerAI("Hola", "<p>x</p>")
	mail := new(mockSender)
	mail.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Twice()

	p := newTestPipeline(leads, nil, ai, mail, nil)
	res, err := p.RunOutreach(context.Background(), OutreachParams{Tab: "LEADS", Quota: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Sent)
	// Third row untouched.
	assert.Equal(t, "Sin enviar", leads.rows("LEADS")[2][model.ColEstado])
	mail.AssertExpectations(t)
}

func TestRunOutreach_DataQualitySkip(t *testing.T) {
	leads := newMemStore()
	leads.tabs["LEADS"] = []model.Row{
		pendingRow("https://acme.com", ""), // no email: skip, no annotation
	}

	p := newTestPipeline(leads, nil, nil, nil, nil)
	res, err := p.RunOutreach(context.Background(), OutreachParams{Tab: "LEADS"})
	require.NoError(t, err)
	assert.Zero(t, res.Sent)

	rows := leads.rows("LEADS")
	assert.Empty(t, rows[0][model.ColUltimoError])
	assert.Equal(t, "Sin enviar", rows[0][model.ColEstado])
}

func TestRunOutreach_NoPendingRows(t *testing.T) {
	leads := newMemStore()
	leads.tabs["LEADS"] = []model.Row{{
		model.ColWeb:    "https://acme.com",
		model.ColCorreo: "jane@acme.com",
		model.ColEstado: string(model.StatusSent),
	}}

	p := newTestPipeline(leads, nil, nil, nil, nil)
	res, err := p.RunOutreach(context.Background(), OutreachParams{Tab: "LEADS"})
	require.NoError(t, err)
	assert.Zero(t, res.Sent)
	assert.NotEmpty(t, res.Log)
}

func TestRunOutreach_SummaryFailureSwallowed(t *testing.T) {
	leads := newMemStore()
	leads.tabs["LEADS"] = []model.Row{pendingRow("https://acme.com", "jane@acme.com")}
	leads.logErr = assert.AnError
	ai := icebreakerAI("Hola", "<p>x</p>")
	mail := new(mockSender)
	mail.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	p := newTestPipeline(leads, nil, ai, mail, nil)
	res, err := p.RunOutreach(context.Background(), OutreachParams{Tab: "LEADS"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Sent)
}

func TestRunOutreach_FetchFailureStillSends(t *testing.T) {
	leads := newMemStore()
	leads.tabs["LEADS"] = []model.Row{pendingRow("https://down.example", "jane@down.example")}
	f := &stubFetcher{errs: map[string]error{"https://down.example/": assert.AnError}}
	ai := icebreakerAI("Hola", "<p>x</p>")
	mail := new(mockSender)
	mail.On("Send", mock.Anything, "jane@down.example", "Hola", "<p>x</p>").Return(nil).Once()

	p := newTestPipeline(leads, nil, ai, mail, f)
	res, err := p.RunOutreach(context.Background(), OutreachParams{Tab: "LEADS"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Sent)
	mail.AssertExpectations(t)
}

func TestParseIcebreaker(t *testing.T) {
	msg := parseIcebreaker("```json\n{\"ASUNTO\":\"Hola\",\"HTML\":\"<p>x</p>\"}\n```")
	assert.Equal(t, "Hola", msg.Subject)
	assert.Equal(t, "<p>x</p>", msg.HTMLBody)

	msg = parseIcebreaker(`{"ASUNTO":"Directo","HTML":"<b>y</b>"}`)
	assert.Equal(t, "Directo", msg.Subject)

	// Malformed output degrades to the placeholder, not an error.
	msg = parseIcebreaker("no es json")
	assert.Equal(t, "Sin asunto", msg.Subject)
	assert.Equal(t, "<p>Error generando email</p>", msg.HTMLBody)
}

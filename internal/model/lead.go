// Package model holds the domain types shared across the pipelines, the lead
// store and the run-history store.
package model

// Lead table column names. The spreadsheet is the system of record and its
// headers are Spanish; these constants are the single place that spelling
// lives.
const (
	ColWeb          = "Web"
	ColCorreo       = "Correo"
	ColIcebreaker   = "Correo Icebreaker"
	ColEstado       = "Estado"
	ColFechaScrapeo = "Fecha Scrapeo"
	ColFechaEnvio   = "Fecha Envío"
	ColUltimoError  = "Ultimo Error"
)

// LeadColumns is the full column set of the lead tab, in table order.
var LeadColumns = []string{
	ColWeb, ColCorreo, ColIcebreaker, ColEstado,
	ColFechaScrapeo, ColFechaEnvio, ColUltimoError,
}

// LeadStatus is the outreach state of a lead row.
type LeadStatus string

const (
	// StatusPending marks a discovered lead not yet contacted.
	StatusPending LeadStatus = "Sin enviar"
	// StatusSent marks a lead whose icebreaker was sent.
	StatusSent LeadStatus = "Enviado"
)

// Row is one spreadsheet row keyed by header name. Missing cells read as "".
type Row map[string]string

// Lead is the structured view of a lead row, keyed by normalized website URL.
type Lead struct {
	Web          string
	Correo       string
	Icebreaker   string
	Estado       LeadStatus
	FechaScrapeo string
	FechaEnvio   string
	UltimoError  string
}

// LeadFromRow maps a raw row onto a Lead. Unknown Estado values pass through
// untouched; the core only ever writes the two canonical states.
func LeadFromRow(r Row) Lead {
	return Lead{
		Web:          r[ColWeb],
		Correo:       r[ColCorreo],
		Icebreaker:   r[ColIcebreaker],
		Estado:       LeadStatus(r[ColEstado]),
		FechaScrapeo: r[ColFechaScrapeo],
		FechaEnvio:   r[ColFechaEnvio],
		UltimoError:  r[ColUltimoError],
	}
}

// Pending reports whether the lead is awaiting outreach.
func (l Lead) Pending() bool {
	return l.Estado == StatusPending
}

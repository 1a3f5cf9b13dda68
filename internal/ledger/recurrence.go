package ledger

import (
	"slices"

	"github.com/google/uuid"

	"ledger/internal/core"
)

// ExpandSeries turns a base transaction into its full recurrence series.
//
// Instance 0 keeps the base date; instance i is shifted by i units. A month
// unit is a calendar month increment with the platform's end-of-month
// normalization; a week unit is exactly 7 days. Every instance shares one
// generated recurrence id, the base date as start date and the planned
// count, and carries its own unique id.
//
// The recurrence descriptor is assumed valid (count > 0, known unit); the
// calling shell rejects anything else before it gets here.
func ExpandSeries(base core.Transaction, rec core.Recurrence) []core.Transaction {
	seriesID := uuid.NewString()

	out := make([]core.Transaction, 0, rec.Count)
	for i := 0; i < rec.Count; i++ {
		inst := base
		inst.ID = uuid.NewString()
		inst.IsRecurring = true
		inst.RecurrenceID = seriesID
		inst.RecurrenceCount = rec.Count
		inst.StartDate = base.Date
		inst.Attachments = slices.Clone(base.Attachments)

		if rec.Unit == core.Weekly {
			inst.Date = base.Date.AddDays(7 * i)
		} else {
			inst.Date = base.Date.AddMonths(i)
		}

		out = append(out, inst)
	}
	return out
}

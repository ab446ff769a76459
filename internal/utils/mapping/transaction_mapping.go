package mapping

import (
	"github.com/mkbook/bookkeeping_backend/internal/core/domain"
	"github.com/mkbook/bookkeeping_backend/internal/models"
)

// ToModelTransaction converts a domain transaction to its header model and
// the ordered entry rows of both sides.
func ToModelTransaction(d domain.Transaction) (models.Transaction, []models.Entry) {
	header := models.Transaction{
		TransactionID: d.TransactionID,
		Date:          d.Date,
		Description:   d.Description,
		Value:         d.Value,
		Tags:          append([]string(nil), d.Tags...),
		AuditFields:   ToModelAuditFields(d.AuditFields),
	}

	entries := make([]models.Entry, 0, len(d.Sources)+len(d.Receivers))
	for i, e := range d.Sources {
		entries = append(entries, toModelEntry(d.TransactionID, string(domain.SideSource), i, e))
	}
	for i, e := range d.Receivers {
		entries = append(entries, toModelEntry(d.TransactionID, string(domain.SideReceiver), i, e))
	}
	return header, entries
}

func toModelEntry(txnID, side string, position int, e domain.Entry) models.Entry {
	return models.Entry{
		TransactionID: txnID,
		Side:          side,
		Position:      position,
		EntityID:      e.EntityID,
		EntityKind:    string(e.Kind),
		Amount:        e.Amount,
	}
}

// ToDomainTransaction rebuilds a domain transaction from its header model and
// entry rows. Entries must already be ordered by side position.
func ToDomainTransaction(m models.Transaction, entries []models.Entry) domain.Transaction {
	d := domain.Transaction{
		TransactionID: m.TransactionID,
		Date:          m.Date,
		Description:   m.Description,
		Value:         m.Value,
		Tags:          append([]string(nil), m.Tags...),
		AuditFields:   ToDomainAuditFields(m.AuditFields),
	}
	for _, e := range entries {
		entry := domain.Entry{
			EntityID: e.EntityID,
			Kind:     domain.EntityKind(e.EntityKind),
			Amount:   e.Amount,
		}
		if e.Side == string(domain.SideSource) {
			d.Sources = append(d.Sources, entry)
		} else {
			d.Receivers = append(d.Receivers, entry)
		}
	}
	return d
}

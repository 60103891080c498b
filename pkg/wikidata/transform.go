package wikidata

import (
	"log/slog"

	"warshipfetch/pkg/logging"
	"warshipfetch/pkg/model"
)

// Project maps one binding to a ShipRecord. Unbound variables stay nil.
func Project(b Binding) model.ShipRecord {
	return model.ShipRecord{
		Name:         b.Value(VarShipLabel),
		ImageURL:     b.Value(VarImage),
		Length:       b.Value(VarLength),
		Displacement: b.Value(VarDisplacement),
		WikidataID:   b.Value(VarShip),
	}
}

// Transform projects every binding in response order and removes repeated identifiers.
// A nil or empty result set yields an empty table.
func Transform(rs *RawResultSet) model.ResultTable {
	bindings := rs.Bindings()
	records := make(model.ResultTable, 0, len(bindings))
	for i, b := range bindings {
		rec := Project(b)
		logging.Trace(slog.Default(), "Projected binding", "index", i, "qid", rec.QID())
		records = append(records, rec)
	}
	return Dedupe(records)
}

// Dedupe keeps the first record for each identifier and preserves relative order.
// Records without an identifier count as one shared key, so only the first survives.
func Dedupe(records model.ResultTable) model.ResultTable {
	out := make(model.ResultTable, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	seenMissing := false

	for _, r := range records {
		if r.WikidataID == nil {
			if seenMissing {
				continue
			}
			seenMissing = true
			out = append(out, r)
			continue
		}
		if _, dup := seen[*r.WikidataID]; dup {
			continue
		}
		seen[*r.WikidataID] = struct{}{}
		out = append(out, r)
	}

	if dropped := len(records) - len(out); dropped > 0 {
		slog.Debug("Dropped duplicate bindings", "dropped", dropped, "kept", len(out))
	}
	return out
}

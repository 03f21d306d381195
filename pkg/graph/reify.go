package graph

import "github.com/mepg/mepg/internal/model"

// reify materializes compound entities for every event on which all
// constituent base types of a reification co-occur. The compound's
// natural key is the ordered tuple of the constituent keys, so
// derivation is idempotent: the same combination always upserts the
// same entity. Reification only reads established base correlations;
// it never invents new ones.
func (b *Builder) reify() {
	if len(b.spec.Reifications) == 0 {
		return
	}

	for _, ev := range b.store.All() {
		baseKeys := b.eventBaseKeys[ev.Index]
		if baseKeys == nil {
			continue
		}

		for _, r := range b.spec.Reifications {
			parts := make([]string, 0, len(r.Parts))
			complete := true
			for _, p := range r.Parts {
				key, ok := baseKeys[p]
				if !ok {
					complete = false
					break
				}
				parts = append(parts, key)
			}
			if !complete {
				// Precondition unmet: skip this compound for this event.
				continue
			}

			composite := model.CompositeKey(parts)
			reified := b.upsertEntity(r.Label, composite, true, parts)
			reifiedID := reified.ID()

			for i, p := range r.Parts {
				baseID := model.EntityID(p, parts[i])
				relKey := baseID + ">" + reifiedID
				if !b.relSeen[relKey] {
					b.relSeen[relKey] = true
					b.rels = append(b.rels, model.RelEdge{BaseID: baseID, ReifiedID: reifiedID})
				}
			}

			b.addCorrelation(ev.Index, reifiedID, true)
		}
	}
}

package graph

// correlate derives, for every event and every configured extractor,
// the base entity the event references. Entities are upserted by
// (type, key); a missing key excludes the event from that perspective
// and is not an error.
func (b *Builder) correlate() {
	for _, ev := range b.store.All() {
		var keys map[string]string
		for _, ex := range b.spec.Extractors {
			key, ok := ex.Extract(ev)
			if !ok || key == "" {
				continue
			}
			entity := b.upsertEntity(ex.Type, key, false, nil)
			b.addCorrelation(ev.Index, entity.ID(), false)

			if keys == nil {
				keys = make(map[string]string, len(b.spec.Extractors))
			}
			keys[ex.Type] = key
		}
		b.eventBaseKeys[ev.Index] = keys
	}
}

package graph

import (
	"strconv"

	"github.com/mepg/mepg/internal/model"
)

// classify maps every event to a class node per configured dimension.
// Dimensions are independent: an event observed under "activity" is
// still free to be observed under "resource" or any other dimension.
func (b *Builder) classify() {
	for _, d := range b.spec.Dimensions {
		byEvent := b.obsClass[d.Name]
		if byEvent == nil {
			byEvent = make(map[int]string, b.store.Len())
			b.obsClass[d.Name] = byEvent
		}

		for _, ev := range b.store.All() {
			key, ok := d.Classify(ev)
			if !ok || key == "" {
				continue
			}
			class := b.upsertClass(d.Name, key)
			byEvent[ev.Index] = key

			edgeKey := d.Name + "#" + strconv.Itoa(ev.Index)
			if !b.obsSeen[edgeKey] {
				b.obsSeen[edgeKey] = true
				b.obs = append(b.obs, model.ObservationEdge{
					EventIndex: ev.Index,
					ClassID:    class.ID(),
					Dimension:  d.Name,
				})
			}
		}
	}
}

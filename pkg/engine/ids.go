package engine

import (
	"fmt"

	"github.com/google/uuid"
)

// idGenerator hands out finding IDs scoped to one analysis. IDs are SHA-1 UUIDs of a
// running sequence number inside a namespace derived from the document, so the same
// document and finding list always produce the same IDs.
type idGenerator struct {
	ns  uuid.UUID
	seq int
}

func newIDGenerator(text string) *idGenerator {
	return &idGenerator{ns: uuid.NewSHA1(uuid.NameSpaceOID, []byte("policyrisk:"+text))}
}

func (g *idGenerator) next(f Finding) string {
	g.seq++
	return uuid.NewSHA1(g.ns, []byte(fmt.Sprintf("%d|%s|%s", g.seq, f.Theme, f.Title))).String()
}

// AssignIDs overwrites every finding ID in order. The input slice is not modified.
func AssignIDs(text string, findings []Finding) []Finding {
	gen := newIDGenerator(text)
	out := make([]Finding, len(findings))
	for i, f := range findings {
		f.ID = gen.next(f)
		out[i] = f
	}
	return out
}

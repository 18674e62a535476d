package domain

// Proposal is a staged transaction awaiting approval. Only the operation
// list matters to this subsystem: the duplication guard screens incoming
// proposals against every operation already staged here. Approval and
// expiration are the host's concern.
type Proposal struct {
	ID         ObjectID
	Operations []Operation
}

// ObjectID implements Object.
func (p *Proposal) ObjectID() ObjectID { return p.ID }

// Clone implements Object. Operations are immutable once staged, so the
// slice is copied shallowly.
func (p *Proposal) Clone() Object {
	dup := *p
	dup.Operations = append([]Operation(nil), p.Operations...)
	return &dup
}

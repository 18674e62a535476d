package chain

import "github.com/alanyoungcy/chainbook/internal/domain"

func (s *State) validateProposalCreate(ctx *txContext, op *domain.ProposalCreateOp) error {
	if len(op.Operations) == 0 {
		return domain.NewOpError(domain.ReasonNothingToUpdate, "proposal stages no operations")
	}
	return nil
}

func (s *State) applyProposalCreate(op *domain.ProposalCreateOp) domain.ObjectID {
	id := s.store.AllocateID(domain.TypeProposal)
	s.store.Insert(&domain.Proposal{
		ID:         id,
		Operations: append([]domain.Operation(nil), op.Operations...),
	})
	s.emit(domain.Event{Type: domain.EventProposalStaged, Subject: id})
	return id
}

// CheckTransactionForDuplicatedOperations rejects a transaction whose new
// proposals stage an operation structurally identical to one already staged
// in any pending proposal, or staged twice within the transaction itself.
// Structural identity is byte identity of the canonical encodings: the same
// operation kind with a different amount is not a duplicate.
func (s *State) CheckTransactionForDuplicatedOperations(tx *domain.Transaction) error {
	var incoming []domain.Operation
	for _, op := range tx.Operations {
		if proposal, ok := op.(*domain.ProposalCreateOp); ok {
			incoming = append(incoming, proposal.Operations...)
		}
	}
	if len(incoming) == 0 {
		return nil
	}

	staged := make(map[string]bool)
	s.store.EachProposal(func(p *domain.Proposal) bool {
		for _, op := range p.Operations {
			staged[string(op.CanonicalBytes())] = true
		}
		return true
	})

	for _, op := range incoming {
		key := string(op.CanonicalBytes())
		if staged[key] {
			return domain.NewOpError(domain.ReasonDuplicateProposedOperation,
				"%s duplicates an operation in a pending proposal", op.Kind())
		}
		staged[key] = true
	}
	return nil
}

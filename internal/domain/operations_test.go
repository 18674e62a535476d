package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleAmount(n int64) AssetAmount {
	return AssetAmount{AssetID: NewID(TypeAsset, 0), Amount: n}
}

func TestCanonicalBytesDistinguishAmounts(t *testing.T) {
	a := &TransferOp{From: NewID(TypeAccount, 0), To: NewID(TypeAccount, 1), Amount: sampleAmount(500)}
	b := &TransferOp{From: NewID(TypeAccount, 0), To: NewID(TypeAccount, 1), Amount: sampleAmount(501)}
	c := &TransferOp{From: NewID(TypeAccount, 0), To: NewID(TypeAccount, 1), Amount: sampleAmount(500)}

	require.Equal(t, a.CanonicalBytes(), c.CanonicalBytes())
	require.NotEqual(t, a.CanonicalBytes(), b.CanonicalBytes())
}

func TestCanonicalBytesDistinguishKinds(t *testing.T) {
	ops := []Operation{
		&RulesCreateOp{Name: "n", Description: "d"},
		&GroupCancelUnmatchedBetsOp{GroupID: NewID(TypeGroup, 0)},
		&BetCancelOp{BettorID: NewID(TypeAccount, 0), BetID: NewID(TypeBet, 0)},
		&TransferOp{From: NewID(TypeAccount, 0), To: NewID(TypeAccount, 0), Amount: sampleAmount(1)},
	}
	seen := make(map[string]OpKind)
	for _, op := range ops {
		key := string(op.CanonicalBytes())
		if prior, dup := seen[key]; dup {
			t.Fatalf("%s and %s share a canonical encoding", prior, op.Kind())
		}
		seen[key] = op.Kind()
	}
}

func TestCanonicalBytesDistinguishOptionalPresence(t *testing.T) {
	empty := ""
	without := &GroupUpdateOp{GroupID: NewID(TypeGroup, 3)}
	withEmpty := &GroupUpdateOp{GroupID: NewID(TypeGroup, 3), NewDescription: &empty}
	frozen := &GroupUpdateOp{GroupID: NewID(TypeGroup, 3), Freeze: boolRef(true)}
	thawed := &GroupUpdateOp{GroupID: NewID(TypeGroup, 3), Freeze: boolRef(false)}

	require.NotEqual(t, without.CanonicalBytes(), withEmpty.CanonicalBytes())
	require.NotEqual(t, frozen.CanonicalBytes(), thawed.CanonicalBytes())
}

func TestOperationJSONRoundTrip(t *testing.T) {
	ops := []Operation{
		&RulesCreateOp{Name: "rules", Description: "desc"},
		&GroupUpdateOp{GroupID: NewID(TypeGroup, 1), DelayBets: boolRef(true)},
		&BetPlaceOp{
			BettorID:         NewID(TypeAccount, 4),
			MarketID:         NewID(TypeMarket, 2),
			Amount:           sampleAmount(1000),
			BackerMultiplier: 250,
			Side:             SideLay,
		},
		&GroupResolveOp{
			GroupID: NewID(TypeGroup, 1),
			Resolutions: []MarketResolution{
				{MarketID: NewID(TypeMarket, 2), Label: ResolutionWin},
			},
		},
		&ProposalCreateOp{Operations: []Operation{
			&TransferOp{From: NewID(TypeAccount, 0), To: NewID(TypeAccount, 1), Amount: sampleAmount(500)},
			&GroupCancelUnmatchedBetsOp{GroupID: NewID(TypeGroup, 9)},
		}},
	}

	for _, op := range ops {
		data, err := EncodeOperationJSON(op)
		require.NoError(t, err, "%s", op.Kind())

		decoded, err := DecodeOperationJSON(data)
		require.NoError(t, err, "%s", op.Kind())
		require.Equal(t, op.Kind(), decoded.Kind())
		require.Equal(t, op.CanonicalBytes(), decoded.CanonicalBytes(),
			"%s must survive the wire byte-for-byte", op.Kind())
	}
}

func TestDecodeUnknownKindFails(t *testing.T) {
	_, err := DecodeOperationJSON([]byte(`{"kind":"teleport","body":{}}`))
	require.Error(t, err)
}

func boolRef(b bool) *bool { return &b }

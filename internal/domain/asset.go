package domain

import "fmt"

// AssetAmount is an integer quantity of a specific asset. Quantities are in
// the asset's smallest unit; fractional amounts do not exist on chain.
type AssetAmount struct {
	AssetID ObjectID `json:"asset_id"`
	Amount  int64    `json:"amount"`
}

// Negated returns the amount with its sign flipped.
func (a AssetAmount) Negated() AssetAmount {
	return AssetAmount{AssetID: a.AssetID, Amount: -a.Amount}
}

// String renders the amount as "<amount> <asset-id>".
func (a AssetAmount) String() string {
	return fmt.Sprintf("%d %s", a.Amount, a.AssetID)
}

// Asset is a settlement asset registered at genesis. An empty
// AuthorizedAccounts list means every account may transact the asset;
// otherwise only the listed accounts are authorized.
type Asset struct {
	ID                 ObjectID
	Symbol             string
	Precision          uint8
	AuthorizedAccounts []ObjectID
}

// ObjectID implements Object.
func (a *Asset) ObjectID() ObjectID { return a.ID }

// Clone implements Object.
func (a *Asset) Clone() Object {
	dup := *a
	dup.AuthorizedAccounts = append([]ObjectID(nil), a.AuthorizedAccounts...)
	return &dup
}

// Account is a chain account registered at genesis. Authority and signing
// live outside this subsystem; the engine only needs the identity.
type Account struct {
	ID   ObjectID
	Name string
}

// ObjectID implements Object.
func (a *Account) ObjectID() ObjectID { return a.ID }

// Clone implements Object.
func (a *Account) Clone() Object {
	dup := *a
	return &dup
}

// SportEvent is the sporting event a betting market group refers to. Event
// lifecycle is managed outside this subsystem.
type SportEvent struct {
	ID          ObjectID
	Description string
}

// ObjectID implements Object.
func (e *SportEvent) ObjectID() ObjectID { return e.ID }

// Clone implements Object.
func (e *SportEvent) Clone() Object {
	dup := *e
	return &dup
}

package domain

// BondingCurveState is a snapshot of a pump.fun bonding curve account.
// Reserves are in the chain's smallest units (lamports / token base units).
type BondingCurveState struct {
	VirtualTokenReserves uint64
	VirtualSolReserves   uint64
	RealTokenReserves    uint64
	RealSolReserves      uint64
	TokenTotalSupply     uint64
	// Complete is true once the curve has migrated off-curve; trading
	// through this engine is no longer possible for the mint.
	Complete bool
}

// GlobalState is a snapshot of the pump.fun global configuration account.
type GlobalState struct {
	Initialized    bool
	Authority      string
	FeeRecipient   string
	FeeBasisPoints uint64
}

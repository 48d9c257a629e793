package pumpfun

import (
	"encoding/binary"
	"fmt"

	"solana-volume-engine/internal/solana"
)

// BuyInstruction builds a buy against the mint's bonding curve: spend up to
// maxSolCost lamports for exactly tokenAmount token base units.
func BuyInstruction(mint, user string, tokenAmount, maxSolCost uint64) (*solana.Instruction, error) {
	curve, userATA, curveATA, err := tradeAccounts(mint, user)
	if err != nil {
		return nil, err
	}

	return &solana.Instruction{
		ProgramID: ProgramID,
		Accounts: []solana.AccountMeta{
			{Pubkey: GlobalAccount},
			{Pubkey: FeeRecipient, IsWritable: true},
			{Pubkey: mint},
			{Pubkey: curve, IsWritable: true},
			{Pubkey: curveATA, IsWritable: true},
			{Pubkey: userATA, IsWritable: true},
			{Pubkey: user, IsSigner: true, IsWritable: true},
			{Pubkey: solana.SystemProgramID},
			{Pubkey: solana.TokenProgramID},
			{Pubkey: solana.RentSysvarID},
			{Pubkey: EventAuthority},
			{Pubkey: ProgramID},
		},
		Data: encodeTradeArgs(buyDiscriminator, tokenAmount, maxSolCost),
	}, nil
}

// SellInstruction builds a sell against the mint's bonding curve: give
// tokenAmount token base units for at least minSolOutput lamports.
func SellInstruction(mint, user string, tokenAmount, minSolOutput uint64) (*solana.Instruction, error) {
	curve, userATA, curveATA, err := tradeAccounts(mint, user)
	if err != nil {
		return nil, err
	}

	return &solana.Instruction{
		ProgramID: ProgramID,
		Accounts: []solana.AccountMeta{
			{Pubkey: GlobalAccount},
			{Pubkey: FeeRecipient, IsWritable: true},
			{Pubkey: mint},
			{Pubkey: curve, IsWritable: true},
			{Pubkey: curveATA, IsWritable: true},
			{Pubkey: userATA, IsWritable: true},
			{Pubkey: user, IsSigner: true, IsWritable: true},
			{Pubkey: solana.SystemProgramID},
			{Pubkey: solana.ATAProgramID},
			{Pubkey: solana.TokenProgramID},
			{Pubkey: EventAuthority},
			{Pubkey: ProgramID},
		},
		Data: encodeTradeArgs(sellDiscriminator, tokenAmount, minSolOutput),
	}, nil
}

// CreateATAInstruction builds an idempotent create of the owner's associated
// token account for mint, paid for by payer.
func CreateATAInstruction(payer, owner, mint string) (*solana.Instruction, error) {
	ata, err := solana.AssociatedTokenAddress(owner, mint)
	if err != nil {
		return nil, fmt.Errorf("derive associated token account: %w", err)
	}

	return &solana.Instruction{
		ProgramID: solana.ATAProgramID,
		Accounts: []solana.AccountMeta{
			{Pubkey: payer, IsSigner: true, IsWritable: true},
			{Pubkey: ata, IsWritable: true},
			{Pubkey: owner},
			{Pubkey: mint},
			{Pubkey: solana.SystemProgramID},
			{Pubkey: solana.TokenProgramID},
		},
		// CreateIdempotent: a no-op when the account already exists
		Data: []byte{1},
	}, nil
}

// tradeAccounts derives the curve PDA and the two associated token accounts
// every buy/sell instruction references.
func tradeAccounts(mint, user string) (curve, userATA, curveATA string, err error) {
	curve, err = BondingCurveAddress(mint)
	if err != nil {
		return "", "", "", err
	}
	userATA, err = solana.AssociatedTokenAddress(user, mint)
	if err != nil {
		return "", "", "", fmt.Errorf("derive user token account: %w", err)
	}
	curveATA, err = solana.AssociatedTokenAddress(curve, mint)
	if err != nil {
		return "", "", "", fmt.Errorf("derive curve token account: %w", err)
	}
	return curve, userATA, curveATA, nil
}

// encodeTradeArgs packs the discriminator and two u64 arguments little-endian.
func encodeTradeArgs(discriminator, amount, limit uint64) []byte {
	data := make([]byte, 24)
	binary.LittleEndian.PutUint64(data[0:8], discriminator)
	binary.LittleEndian.PutUint64(data[8:16], amount)
	binary.LittleEndian.PutUint64(data[16:24], limit)
	return data
}

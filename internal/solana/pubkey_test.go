package solana

import "testing"

func TestIsValidPubkey(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"wrapped SOL mint", WrappedSOLMint, true},
		{"system program", SystemProgramID, true},
		{"token program", TokenProgramID, true},
		{"empty", "", false},
		{"not base58", "0OIl+/=", false},
		{"too short", "abc", false},
		{"signature length", "5VERv8NMvzbJMEkV8xnrLkEaWRtSz9CosKDYjCJjBRnbJLgp8uirBgmQpjKhoR4tjF3ZpRzrFmBV6UjKdiSZkQUW", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidPubkey(tt.input); got != tt.want {
				t.Errorf("IsValidPubkey(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestDerivePDA_Deterministic(t *testing.T) {
	seeds := [][]byte{[]byte("bonding-curve"), mustDecode(t, WrappedSOLMint)}

	addr1, bump1, err := DerivePDA(seeds, TokenProgramID)
	if err != nil {
		t.Fatalf("DerivePDA: %v", err)
	}
	addr2, bump2, err := DerivePDA(seeds, TokenProgramID)
	if err != nil {
		t.Fatalf("DerivePDA: %v", err)
	}

	if addr1 != addr2 || bump1 != bump2 {
		t.Errorf("derivation not deterministic: (%s, %d) vs (%s, %d)", addr1, bump1, addr2, bump2)
	}
	if !IsValidPubkey(addr1) {
		t.Errorf("derived address %q is not a valid pubkey", addr1)
	}
}

func TestDerivePDA_OffCurve(t *testing.T) {
	seeds := [][]byte{[]byte("metadata"), mustDecode(t, WrappedSOLMint)}

	addr, _, err := DerivePDA(seeds, ATAProgramID)
	if err != nil {
		t.Fatalf("DerivePDA: %v", err)
	}

	raw := mustDecode(t, addr)
	if isOnCurve(raw) {
		t.Error("derived PDA lies on the ed25519 curve")
	}
}

func TestAssociatedTokenAddress(t *testing.T) {
	owner := "4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T"

	ata, err := AssociatedTokenAddress(owner, WrappedSOLMint)
	if err != nil {
		t.Fatalf("AssociatedTokenAddress: %v", err)
	}
	if !IsValidPubkey(ata) {
		t.Errorf("ATA %q is not a valid pubkey", ata)
	}
	if ata == owner || ata == WrappedSOLMint {
		t.Error("ATA must differ from owner and mint")
	}

	// Different mints map to different accounts for the same owner.
	other, err := AssociatedTokenAddress(owner, "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	if err != nil {
		t.Fatalf("AssociatedTokenAddress: %v", err)
	}
	if other == ata {
		t.Error("distinct mints produced the same ATA")
	}
}

func mustDecode(t *testing.T, pubkey string) []byte {
	t.Helper()
	raw, err := DecodePubkey(pubkey)
	if err != nil {
		t.Fatalf("DecodePubkey(%q): %v", pubkey, err)
	}
	return raw
}

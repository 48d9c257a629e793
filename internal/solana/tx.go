package solana

import (
	"bytes"
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"
)

// AccountMeta describes how an instruction uses an account.
type AccountMeta struct {
	Pubkey     string
	IsSigner   bool
	IsWritable bool
}

// Instruction is a single program invocation.
type Instruction struct {
	ProgramID string
	Accounts  []AccountMeta
	Data      []byte
}

// Keypair is an ed25519 signing key with its base58 public key.
type Keypair struct {
	PublicKey string
	priv      ed25519.PrivateKey
}

// KeypairFromBase58 parses a base58-encoded 64-byte keypair
// (32-byte seed followed by the 32-byte public key, Solana CLI format).
func KeypairFromBase58(s string) (*Keypair, error) {
	raw, err := base58.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("decode keypair: %w", err)
	}
	if len(raw) != 64 {
		return nil, fmt.Errorf("keypair must be 64 bytes, got %d", len(raw))
	}

	priv := ed25519.NewKeyFromSeed(raw[:32])
	if !bytes.Equal(priv.Public().(ed25519.PublicKey), raw[32:]) {
		return nil, fmt.Errorf("keypair public key does not match seed")
	}

	return &Keypair{
		PublicKey: base58.Encode(raw[32:]),
		priv:      priv,
	}, nil
}

// Sign signs message with the keypair's private key.
func (k *Keypair) Sign(message []byte) []byte {
	return ed25519.Sign(k.priv, message)
}

// compiledAccount is an account key with merged usage flags.
type compiledAccount struct {
	pubkey   string
	signer   bool
	writable bool
}

// Transaction is a compiled legacy transaction awaiting signatures.
type Transaction struct {
	message     []byte
	accounts    []compiledAccount
	numRequired int
	signatures  map[string][]byte // pubkey -> signature
}

// BuildTransaction compiles instructions into a legacy transaction message.
// payer is placed first and pays fees; recentBlockhash bounds validity.
func BuildTransaction(instructions []Instruction, payer, recentBlockhash string) (*Transaction, error) {
	if len(instructions) == 0 {
		return nil, fmt.Errorf("no instructions")
	}
	if !IsValidPubkey(payer) {
		return nil, fmt.Errorf("invalid payer address %q", payer)
	}
	hashBytes, err := base58.Decode(recentBlockhash)
	if err != nil || len(hashBytes) != 32 {
		return nil, fmt.Errorf("invalid recent blockhash %q", recentBlockhash)
	}

	accounts, err := compileAccounts(instructions, payer)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int, len(accounts))
	for i, a := range accounts {
		index[a.pubkey] = i
	}

	numRequired := 0
	numReadonlySigned := 0
	numReadonlyUnsigned := 0
	for _, a := range accounts {
		if a.signer {
			numRequired++
			if !a.writable {
				numReadonlySigned++
			}
		} else if !a.writable {
			numReadonlyUnsigned++
		}
	}

	var msg bytes.Buffer
	msg.WriteByte(byte(numRequired))
	msg.WriteByte(byte(numReadonlySigned))
	msg.WriteByte(byte(numReadonlyUnsigned))

	writeCompactU16(&msg, len(accounts))
	for _, a := range accounts {
		keyBytes, err := DecodePubkey(a.pubkey)
		if err != nil {
			return nil, err
		}
		msg.Write(keyBytes)
	}

	msg.Write(hashBytes)

	writeCompactU16(&msg, len(instructions))
	for _, ix := range instructions {
		progIdx, ok := index[ix.ProgramID]
		if !ok {
			return nil, fmt.Errorf("program %s not in account table", ix.ProgramID)
		}
		msg.WriteByte(byte(progIdx))

		writeCompactU16(&msg, len(ix.Accounts))
		for _, meta := range ix.Accounts {
			idx, ok := index[meta.Pubkey]
			if !ok {
				return nil, fmt.Errorf("account %s not in account table", meta.Pubkey)
			}
			msg.WriteByte(byte(idx))
		}

		writeCompactU16(&msg, len(ix.Data))
		msg.Write(ix.Data)
	}

	return &Transaction{
		message:     msg.Bytes(),
		accounts:    accounts,
		numRequired: numRequired,
		signatures:  make(map[string][]byte, numRequired),
	}, nil
}

// compileAccounts merges instruction account metas into the message account
// table: writable signers first (payer leading), then readonly signers,
// writable non-signers, and readonly non-signers including program IDs.
func compileAccounts(instructions []Instruction, payer string) ([]compiledAccount, error) {
	merged := make(map[string]*compiledAccount)
	order := []string{payer}
	merged[payer] = &compiledAccount{pubkey: payer, signer: true, writable: true}

	add := func(pubkey string, signer, writable bool) error {
		if !IsValidPubkey(pubkey) {
			return fmt.Errorf("invalid account address %q", pubkey)
		}
		if acc, ok := merged[pubkey]; ok {
			acc.signer = acc.signer || signer
			acc.writable = acc.writable || writable
			return nil
		}
		merged[pubkey] = &compiledAccount{pubkey: pubkey, signer: signer, writable: writable}
		order = append(order, pubkey)
		return nil
	}

	for _, ix := range instructions {
		for _, meta := range ix.Accounts {
			if err := add(meta.Pubkey, meta.IsSigner, meta.IsWritable); err != nil {
				return nil, err
			}
		}
		if err := add(ix.ProgramID, false, false); err != nil {
			return nil, err
		}
	}

	rank := func(a *compiledAccount) int {
		switch {
		case a.pubkey == payer:
			return 0
		case a.signer && a.writable:
			return 1
		case a.signer:
			return 2
		case a.writable:
			return 3
		default:
			return 4
		}
	}

	// Stable partition by rank, preserving first-use order within ranks.
	var out []compiledAccount
	for r := 0; r <= 4; r++ {
		for _, pubkey := range order {
			if acc := merged[pubkey]; rank(acc) == r {
				out = append(out, *acc)
			}
		}
	}
	return out, nil
}

// Message returns the serialized message bytes to be signed.
func (t *Transaction) Message() []byte {
	return t.message
}

// Sign adds signatures from the given keypairs. Every required signer must
// be covered before Serialize is called.
func (t *Transaction) Sign(signers ...*Keypair) error {
	for _, kp := range signers {
		found := false
		for i := 0; i < t.numRequired; i++ {
			if t.accounts[i].pubkey == kp.PublicKey {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("signer %s is not a required signer", kp.PublicKey)
		}
		t.signatures[kp.PublicKey] = kp.Sign(t.message)
	}
	return nil
}

// Serialize returns the wire-format transaction:
// compact-u16 signature count, signatures in account-table order, message.
func (t *Transaction) Serialize() ([]byte, error) {
	var buf bytes.Buffer
	writeCompactU16(&buf, t.numRequired)
	for i := 0; i < t.numRequired; i++ {
		sig, ok := t.signatures[t.accounts[i].pubkey]
		if !ok {
			return nil, fmt.Errorf("missing signature for %s", t.accounts[i].pubkey)
		}
		buf.Write(sig)
	}
	buf.Write(t.message)
	return buf.Bytes(), nil
}

// writeCompactU16 writes n in the compact-u16 encoding used by the Solana
// wire format (little-endian base-128 varint, max 3 bytes).
func writeCompactU16(buf *bytes.Buffer, n int) {
	v := uint16(n)
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			buf.WriteByte(b)
			return
		}
		buf.WriteByte(b | 0x80)
	}
}

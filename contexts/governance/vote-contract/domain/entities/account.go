package entities

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/sha3"
)

const (
	// PublicKeySize is the raw byte length of an external account key.
	PublicKeySize = 96
	// ContractIDSize is the raw byte length of a contract identifier.
	ContractIDSize = 32
)

// PublicKey identifies an externally controlled account.
type PublicKey [PublicKeySize]byte

// ContractID identifies a deployed contract.
type ContractID [ContractIDSize]byte

func (pk PublicKey) Hex() string {
	return hex.EncodeToString(pk[:])
}

func (id ContractID) Hex() string {
	return hex.EncodeToString(id[:])
}

func ParsePublicKey(raw string) (PublicKey, error) {
	var pk PublicKey
	decoded, err := hex.DecodeString(raw)
	if err != nil {
		return PublicKey{}, fmt.Errorf("decode public key: %w", err)
	}
	if len(decoded) != PublicKeySize {
		return PublicKey{}, fmt.Errorf("public key must be %d bytes, got %d", PublicKeySize, len(decoded))
	}
	copy(pk[:], decoded)
	return pk, nil
}

func ParseContractID(raw string) (ContractID, error) {
	var id ContractID
	decoded, err := hex.DecodeString(raw)
	if err != nil {
		return ContractID{}, fmt.Errorf("decode contract id: %w", err)
	}
	if len(decoded) != ContractIDSize {
		return ContractID{}, fmt.Errorf("contract id must be %d bytes, got %d", ContractIDSize, len(decoded))
	}
	copy(id[:], decoded)
	return id, nil
}

// AccountKind discriminates the Account sum type.
type AccountKind uint8

const (
	AccountKindExternal AccountKind = iota
	AccountKindContract
)

func (k AccountKind) String() string {
	if k == AccountKindContract {
		return "contract"
	}
	return "external"
}

// Account is either an externally controlled account (user holding a key) or
// a contract account. The zero value is an external account with an all-zero
// key, used only as a pre-init placeholder. Accounts are comparable and valid
// map keys; enumeration order is defined by Compare.
type Account struct {
	kind     AccountKind
	external PublicKey
	contract ContractID
}

func NewExternalAccount(key PublicKey) Account {
	return Account{kind: AccountKindExternal, external: key}
}

func NewContractAccount(id ContractID) Account {
	return Account{kind: AccountKindContract, contract: id}
}

func (a Account) Kind() AccountKind {
	return a.kind
}

// PublicKey returns the identifying key for external accounts.
func (a Account) PublicKey() (PublicKey, bool) {
	if a.kind != AccountKindExternal {
		return PublicKey{}, false
	}
	return a.external, true
}

// ContractID returns the identifying id for contract accounts.
func (a Account) ContractID() (ContractID, bool) {
	if a.kind != AccountKindContract {
		return ContractID{}, false
	}
	return a.contract, true
}

// Compare defines the total order used wherever accounts key an ordered
// enumeration: every external account sorts before every contract account,
// and within a kind accounts sort by raw byte order of the identifying key.
func (a Account) Compare(b Account) int {
	if a.kind != b.kind {
		if a.kind == AccountKindExternal {
			return -1
		}
		return 1
	}
	if a.kind == AccountKindExternal {
		return bytes.Compare(a.external[:], b.external[:])
	}
	return bytes.Compare(a.contract[:], b.contract[:])
}

func (a Account) Equal(b Account) bool {
	return a == b
}

// IdentityHex is the full hex form of the identifying key.
func (a Account) IdentityHex() string {
	if a.kind == AccountKindContract {
		return a.contract.Hex()
	}
	return a.external.Hex()
}

func (a Account) String() string {
	return a.kind.String() + ":" + a.IdentityHex()
}

// Fingerprint is a short Keccak-256 digest of the account identity, used to
// correlate log lines without spelling out 96-byte keys. Never use it for
// authorization.
func (a Account) Fingerprint() string {
	hash := sha3.NewLegacyKeccak256()
	hash.Write([]byte{byte(a.kind)})
	if a.kind == AccountKindContract {
		hash.Write(a.contract[:])
	} else {
		hash.Write(a.external[:])
	}
	sum := hash.Sum(nil)
	return hex.EncodeToString(sum[:8])
}

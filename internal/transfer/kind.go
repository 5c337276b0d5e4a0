package transfer

import "fmt"

// Kind is the category of a transaction the wallet can build or interpret.
// The set is closed: a switch over Kind must list every member or take a default.
type Kind uint8

const (
	SimpleTransfer Kind = iota + 1
	EncryptedTransfer
	TransferToSecret
	TransferToPublic

	RegisterDelegation
	UpdateDelegation
	RemoveDelegation

	RegisterBaker
	UpdateBakerStake
	UpdateBakerPool
	UpdateBakerKeys
	RemoveBaker
)

var kindNames = map[Kind]string{
	SimpleTransfer:     "simpleTransfer",
	EncryptedTransfer:  "encryptedTransfer",
	TransferToSecret:   "transferToSecret",
	TransferToPublic:   "transferToPublic",
	RegisterDelegation: "registerDelegation",
	UpdateDelegation:   "updateDelegation",
	RemoveDelegation:   "removeDelegation",
	RegisterBaker:      "registerBaker",
	UpdateBakerStake:   "updateBakerStake",
	UpdateBakerPool:    "updateBakerPool",
	UpdateBakerKeys:    "updateBakerKeys",
	RemoveBaker:        "removeBaker",
}

// Kinds returns every Kind in declaration order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(kindNames))
	for k := SimpleTransfer; k <= RemoveBaker; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// ParseKind maps a wire name such as "simpleTransfer" to its Kind.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

func (k Kind) IsValid() bool {
	_, ok := kindNames[k]
	return ok
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// IsShielding reports whether the kind moves funds into, out of or within the shielded balance.
func (k Kind) IsShielding() bool {
	switch k {
	case EncryptedTransfer, TransferToSecret, TransferToPublic:
		return true
	default:
		return false
	}
}

func (k Kind) IsDelegation() bool {
	switch k {
	case RegisterDelegation, UpdateDelegation, RemoveDelegation:
		return true
	default:
		return false
	}
}

func (k Kind) IsBaker() bool {
	switch k {
	case RegisterBaker, UpdateBakerStake, UpdateBakerPool, UpdateBakerKeys, RemoveBaker:
		return true
	default:
		return false
	}
}

// SupportsMemo reports whether a transaction of this kind can carry a memo.
func (k Kind) SupportsMemo() bool {
	switch k {
	case SimpleTransfer, EncryptedTransfer:
		return true
	default:
		return false
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	name, ok := kindNames[k]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, uint8(k))
	}
	return []byte(name), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

package evm

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	sb "github.com/cordialsys/stakeboard"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip32"
	"github.com/tyler-smith/go-bip39"
)

// Signer signs transactions for one account.
type Signer interface {
	Address() sb.Address
	SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

type KeySigner struct {
	key     *ecdsa.PrivateKey
	address sb.Address
}

var _ Signer = &KeySigner{}

// NewSigner accepts either a hex private key or a BIP-39 mnemonic. index
// selects the derived account of a mnemonic.
func NewSigner(secret string, index uint32) (*KeySigner, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, fmt.Errorf("no signing key configured")
	}
	if strings.Contains(secret, " ") {
		return NewMnemonicSigner(secret, "", index)
	}
	return NewKeySigner(secret)
}

func NewKeySigner(hexKey string) (*KeySigner, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %v", err)
	}
	return fromKey(key), nil
}

// NewMnemonicSigner derives the key at m/44'/60'/0'/0/index.
func NewMnemonicSigner(mnemonic string, passphrase string, index uint32) (*KeySigner, error) {
	mnemonic = strings.Join(strings.Fields(mnemonic), " ")
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, fmt.Errorf("invalid mnemonic")
	}
	seed := bip39.NewSeed(mnemonic, passphrase)
	keyBytes, err := deriveKey(seed, 60, index)
	if err != nil {
		return nil, err
	}
	key, err := crypto.ToECDSA(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("invalid derived key: %v", err)
	}
	return fromKey(key), nil
}

func fromKey(key *ecdsa.PrivateKey) *KeySigner {
	address := crypto.PubkeyToAddress(key.PublicKey)
	return &KeySigner{key: key, address: sb.NormalizeAddress(address.Hex())}
}

func (s *KeySigner) Address() sb.Address {
	return s.address
}

func (s *KeySigner) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	return types.SignTx(tx, types.LatestSignerForChainID(chainID), s.key)
}

// deriveKey follows BIP-44: m/44'/coinType'/0'/0/index
func deriveKey(seed []byte, coinType uint32, index uint32) ([]byte, error) {
	master, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("master key: %w", err)
	}
	path := []uint32{
		bip32.FirstHardenedChild + 44,
		bip32.FirstHardenedChild + coinType,
		bip32.FirstHardenedChild + 0,
		0,
		index,
	}
	key := master
	for _, child := range path {
		key, err = key.NewChildKey(child)
		if err != nil {
			return nil, fmt.Errorf("derive %d: %w", child, err)
		}
	}
	return key.Key, nil
}

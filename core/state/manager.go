package state

import (
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"halochain/crypto"
	"halochain/storage"
)

// Manager provides keyed access to protocol state on top of the raw key value
// store. Keys are keccak256 hashed, values are RLP encoded.
type Manager struct {
	db storage.Database
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

type TokenMetadata struct {
	Symbol   string
	Name     string
	Decimals uint8
}

var (
	tokenPrefix   = []byte("token:")
	tokenListKey  = ethcrypto.Keccak256([]byte("token-list"))
	supplyPrefix  = []byte("supply:")
	balancePrefix = []byte("balance:")
)

func tokenMetadataKey(symbol string) []byte {
	buf := make([]byte, len(tokenPrefix)+len(symbol))
	copy(buf, tokenPrefix)
	copy(buf[len(tokenPrefix):], symbol)
	return ethcrypto.Keccak256(buf)
}

func tokenSupplyKey(symbol string) []byte {
	buf := make([]byte, len(supplyPrefix)+len(symbol))
	copy(buf, supplyPrefix)
	copy(buf[len(supplyPrefix):], symbol)
	return ethcrypto.Keccak256(buf)
}

func balanceKey(addr []byte, symbol string) []byte {
	buf := make([]byte, len(balancePrefix)+len(symbol)+1+len(addr))
	copy(buf, balancePrefix)
	copy(buf[len(balancePrefix):], symbol)
	buf[len(balancePrefix)+len(symbol)] = ':'
	copy(buf[len(balancePrefix)+len(symbol)+1:], addr)
	return ethcrypto.Keccak256(buf)
}

func kvKey(key []byte) []byte {
	return ethcrypto.Keccak256(key)
}

// getRaw returns the stored bytes for a hashed key, or nil when the key is
// absent.
func (m *Manager) getRaw(hashed []byte) ([]byte, error) {
	data, err := m.db.Get(hashed)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}

// KVPut stores the provided value under the supplied key using RLP encoding.
// The key is hashed with keccak256 before hitting the underlying store.
func (m *Manager) KVPut(key []byte, value interface{}) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return m.db.Put(kvKey(key), encoded)
}

// KVGet retrieves the value stored under the supplied key and decodes it into
// the provided destination. The boolean return value indicates whether the
// key existed in state.
func (m *Manager) KVGet(key []byte, out interface{}) (bool, error) {
	if len(key) == 0 {
		return false, fmt.Errorf("kv: key must not be empty")
	}
	data, err := m.getRaw(kvKey(key))
	if err != nil {
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if out == nil {
		return true, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, err
	}
	return true, nil
}

// KVDelete removes the value stored under the supplied key.
func (m *Manager) KVDelete(key []byte) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	return m.db.Delete(kvKey(key))
}

func (m *Manager) loadTokenList() ([]string, error) {
	data, err := m.getRaw(tokenListKey)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return []string{}, nil
	}
	var list []string
	if err := rlp.DecodeBytes(data, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (m *Manager) writeTokenList(list []string) error {
	encoded, err := rlp.EncodeToBytes(list)
	if err != nil {
		return err
	}
	return m.db.Put(tokenListKey, encoded)
}

func (m *Manager) loadTokenMetadata(symbol string) (*TokenMetadata, error) {
	data, err := m.getRaw(tokenMetadataKey(symbol))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	meta := new(TokenMetadata)
	if err := rlp.DecodeBytes(data, meta); err != nil {
		return nil, err
	}
	return meta, nil
}

// RegisterToken stores the metadata for a token and records it in the token
// index.
func (m *Manager) RegisterToken(symbol, name string, decimals uint8) error {
	normalized := strings.ToUpper(strings.TrimSpace(symbol))
	if normalized == "" {
		return fmt.Errorf("token symbol must not be empty")
	}
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("token %s: name must not be empty", normalized)
	}
	if existing, err := m.loadTokenMetadata(normalized); err != nil {
		return err
	} else if existing != nil {
		return fmt.Errorf("token %s already registered", normalized)
	}

	list, err := m.loadTokenList()
	if err != nil {
		return err
	}
	list = append(list, normalized)
	sort.Strings(list)
	if err := m.writeTokenList(list); err != nil {
		return err
	}

	meta := &TokenMetadata{Symbol: normalized, Name: name, Decimals: decimals}
	encoded, err := rlp.EncodeToBytes(meta)
	if err != nil {
		return err
	}
	return m.db.Put(tokenMetadataKey(normalized), encoded)
}

// Token retrieves metadata for a registered token.
func (m *Manager) Token(symbol string) (*TokenMetadata, error) {
	return m.loadTokenMetadata(strings.ToUpper(strings.TrimSpace(symbol)))
}

// TokenList returns all registered token symbols in sorted order.
func (m *Manager) TokenList() ([]string, error) {
	return m.loadTokenList()
}

// TokenExists reports whether the provided token symbol is registered.
func (m *Manager) TokenExists(symbol string) bool {
	normalized := strings.ToUpper(strings.TrimSpace(symbol))
	if normalized == "" {
		return false
	}
	meta, err := m.loadTokenMetadata(normalized)
	return err == nil && meta != nil
}

// SetBalance stores an account balance for the provided token.
func (m *Manager) SetBalance(addr []byte, symbol string, amount *big.Int) error {
	if len(addr) == 0 {
		return fmt.Errorf("address must not be empty")
	}
	if amount == nil {
		amount = big.NewInt(0)
	}
	if amount.Sign() < 0 {
		return fmt.Errorf("negative balance not allowed")
	}
	normalized := strings.ToUpper(strings.TrimSpace(symbol))
	if normalized == "" {
		return fmt.Errorf("token symbol must not be empty")
	}
	if meta, err := m.loadTokenMetadata(normalized); err != nil {
		return err
	} else if meta == nil {
		return fmt.Errorf("token %s not registered", normalized)
	}
	encoded, err := rlp.EncodeToBytes(amount)
	if err != nil {
		return err
	}
	return m.db.Put(balanceKey(addr, normalized), encoded)
}

// Balance retrieves a token balance for the provided account and token.
func (m *Manager) Balance(addr []byte, symbol string) (*big.Int, error) {
	data, err := m.getRaw(balanceKey(addr, strings.ToUpper(strings.TrimSpace(symbol))))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return big.NewInt(0), nil
	}
	amount := new(big.Int)
	if err := rlp.DecodeBytes(data, amount); err != nil {
		return nil, err
	}
	return amount, nil
}

// TokenBalance retrieves a token balance by account address.
func (m *Manager) TokenBalance(addr crypto.Address, symbol string) (*big.Int, error) {
	return m.Balance(addr.Bytes(), symbol)
}

// TokenSupply returns the recorded circulating supply of the token.
func (m *Manager) TokenSupply(symbol string) (*big.Int, error) {
	data, err := m.getRaw(tokenSupplyKey(strings.ToUpper(strings.TrimSpace(symbol))))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return big.NewInt(0), nil
	}
	supply := new(big.Int)
	if err := rlp.DecodeBytes(data, supply); err != nil {
		return nil, err
	}
	return supply, nil
}

func (m *Manager) writeTokenSupply(symbol string, supply *big.Int) error {
	encoded, err := rlp.EncodeToBytes(supply)
	if err != nil {
		return err
	}
	return m.db.Put(tokenSupplyKey(symbol), encoded)
}

// MintToken credits the account and grows the recorded supply.
func (m *Manager) MintToken(symbol string, to crypto.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("mint amount must not be negative")
	}
	normalized := strings.ToUpper(strings.TrimSpace(symbol))
	balance, err := m.Balance(to.Bytes(), normalized)
	if err != nil {
		return err
	}
	if err := m.SetBalance(to.Bytes(), normalized, new(big.Int).Add(balance, amount)); err != nil {
		return err
	}
	supply, err := m.TokenSupply(normalized)
	if err != nil {
		return err
	}
	return m.writeTokenSupply(normalized, new(big.Int).Add(supply, amount))
}

// BurnToken debits the account and shrinks the recorded supply.
func (m *Manager) BurnToken(symbol string, from crypto.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("burn amount must not be negative")
	}
	normalized := strings.ToUpper(strings.TrimSpace(symbol))
	balance, err := m.Balance(from.Bytes(), normalized)
	if err != nil {
		return err
	}
	newBalance := new(big.Int).Sub(balance, amount)
	if newBalance.Sign() < 0 {
		return fmt.Errorf("token %s: insufficient balance to burn", normalized)
	}
	if err := m.SetBalance(from.Bytes(), normalized, newBalance); err != nil {
		return err
	}
	supply, err := m.TokenSupply(normalized)
	if err != nil {
		return err
	}
	newSupply := new(big.Int).Sub(supply, amount)
	if newSupply.Sign() < 0 {
		return fmt.Errorf("token %s: supply underflow", normalized)
	}
	return m.writeTokenSupply(normalized, newSupply)
}

// Transfer moves tokens between accounts. The debit is checked before either
// balance is written.
func (m *Manager) Transfer(symbol string, from, to crypto.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("transfer amount must not be negative")
	}
	if amount.Sign() == 0 {
		return nil
	}
	normalized := strings.ToUpper(strings.TrimSpace(symbol))
	fromBalance, err := m.Balance(from.Bytes(), normalized)
	if err != nil {
		return err
	}
	newFrom := new(big.Int).Sub(fromBalance, amount)
	if newFrom.Sign() < 0 {
		return fmt.Errorf("token %s: insufficient balance", normalized)
	}
	toBalance, err := m.Balance(to.Bytes(), normalized)
	if err != nil {
		return err
	}
	if err := m.SetBalance(from.Bytes(), normalized, newFrom); err != nil {
		return err
	}
	return m.SetBalance(to.Bytes(), normalized, new(big.Int).Add(toBalance, amount))
}

// EnsureCanWithdraw verifies the account holds at least amount of the token
// without mutating anything.
func (m *Manager) EnsureCanWithdraw(symbol string, from crypto.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("withdraw amount must not be negative")
	}
	normalized := strings.ToUpper(strings.TrimSpace(symbol))
	balance, err := m.Balance(from.Bytes(), normalized)
	if err != nil {
		return err
	}
	if balance.Cmp(amount) < 0 {
		return fmt.Errorf("token %s: insufficient balance", normalized)
	}
	return nil
}

package crypto

import ethcrypto "github.com/ethereum/go-ethereum/crypto"

// ModuleAddress derives the deterministic account for a protocol module from
// its name. Module accounts have no known private key.
func ModuleAddress(prefix AddressPrefix, name string) Address {
	hash := ethcrypto.Keccak256([]byte("module/" + name))
	return NewAddress(prefix, hash[12:])
}

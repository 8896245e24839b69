package rpc

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/Belloabraham121/warpscan/internal/errs"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ENS registry address on mainnet, where reverse resolution is authoritative.
var ensRegistryAddress = common.HexToAddress("0x00000000000C2E074eC69A0dFb2997BA6C7d2e1e")

var (
	// resolver(bytes32)
	ensResolverSelector = []byte{0x01, 0x78, 0xb8, 0xbf}
	// name(bytes32)
	ensNameSelector = []byte{0x69, 0x1f, 0x34, 0x31}
)

// ResolveName reverse-resolves address to its primary ENS name via two
// eth_call round trips: resolver(node) on the registry, then name(node) on
// the resolver. An unbound name is ("", nil), not an error.
func (c *Client) ResolveName(ctx context.Context, address string) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	defer observe("ens_resolve", time.Now())

	node := reverseNode(address)

	resolverRaw, err := c.call(ctx, ensRegistryAddress, append(ensResolverSelector, node[:]...))
	if err != nil {
		return "", wrapErr("ens_resolve", err)
	}
	if len(resolverRaw) < 32 {
		return "", nil
	}
	resolver := common.BytesToAddress(resolverRaw[12:32])
	if resolver == (common.Address{}) {
		return "", nil
	}

	nameRaw, err := c.call(ctx, resolver, append(ensNameSelector, node[:]...))
	if err != nil {
		return "", wrapErr("ens_resolve", err)
	}
	name, err := decodeABIString(nameRaw)
	if err != nil {
		return "", errs.Parse("ens_resolve", err)
	}
	return name, nil
}

func (c *Client) call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	return c.ethClient.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
}

// reverseNode computes namehash("<hex-addr>.addr.reverse").
func reverseNode(address string) common.Hash {
	addr := strings.ToLower(strings.TrimPrefix(address, "0x"))
	return namehash(addr + ".addr.reverse")
}

func namehash(name string) common.Hash {
	node := common.Hash{}
	if name == "" {
		return node
	}
	labels := strings.Split(name, ".")
	for i := len(labels) - 1; i >= 0; i-- {
		labelHash := crypto.Keccak256([]byte(labels[i]))
		node = common.BytesToHash(crypto.Keccak256(node[:], labelHash))
	}
	return node
}

// decodeABIString unpacks a solidity string return value: 32-byte offset,
// 32-byte length, then the bytes. The resolver controls these words, so both
// are compared against the response size before any arithmetic that could
// wrap.
func decodeABIString(raw []byte) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}
	if len(raw) < 64 {
		return "", errors.New("abi string: response too short")
	}
	total := uint64(len(raw))
	offset := new(big.Int).SetBytes(raw[:32])
	if !offset.IsUint64() || offset.Uint64() > total-32 {
		return "", errors.New("abi string: offset out of range")
	}
	start := offset.Uint64()
	length := new(big.Int).SetBytes(raw[start : start+32])
	if !length.IsUint64() || length.Uint64() > total-start-32 {
		return "", errors.New("abi string: length out of range")
	}
	return string(raw[start+32 : start+32+length.Uint64()]), nil
}

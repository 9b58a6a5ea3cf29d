// Package identity decides on whose behalf reads are scoped and writes are
// signed.
package identity

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	pscommon "github.com/tranvictor/petshop/common"
)

var ErrNotConnected = errors.New("no wallet connected")

// Resolver holds the connected wallet, if any. An explicit address always
// wins over the connected one.
type Resolver struct {
	mu        sync.RWMutex
	connected *common.Address
}

func NewResolver() *Resolver {
	return &Resolver{}
}

// Connect sets the wallet address, the zero address disconnects.
func (r *Resolver) Connect(addr common.Address) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if addr == (common.Address{}) {
		r.connected = nil
		return
	}
	a := addr
	r.connected = &a
}

func (r *Resolver) Disconnect() {
	r.Connect(common.Address{})
}

func (r *Resolver) Connected() (common.Address, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.connected == nil {
		return common.Address{}, false
	}
	return *r.connected, true
}

// Resolve returns the acting address. A malformed explicit address is an
// error, it never falls back silently to the wallet.
func (r *Resolver) Resolve(explicit string) (common.Address, error) {
	if strings.TrimSpace(explicit) != "" {
		addr, err := pscommon.ParseAddress(explicit)
		if err != nil {
			return common.Address{}, fmt.Errorf("couldn't resolve acting address: %w", err)
		}
		return addr, nil
	}
	if addr, ok := r.Connected(); ok {
		return addr, nil
	}
	return common.Address{}, ErrNotConnected
}

// Owner is Resolve for fetchers: nil means nobody is connected and the
// dependent queries must stay disabled.
func (r *Resolver) Owner(explicit string) (*common.Address, error) {
	addr, err := r.Resolve(explicit)
	if errors.Is(err, ErrNotConnected) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &addr, nil
}

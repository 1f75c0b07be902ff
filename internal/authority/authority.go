// Package authority implements the per-function bitmask permission model.
//
// Each platform function (identified by a stable key such as "P_P11") declares
// the subset of the permission vocabulary it supports. A user's grant for a
// function is a single unsigned bitmask; permissions combine by bitwise OR.
//
// The package is a pure in-memory data structure with no I/O.
package authority

import (
	"fmt"
	"math/bits"
	"sort"
)

// Permission is a single named capability encoded as a power-of-two bit.
type Permission uint32

const (
	Read   Permission = 1 << iota // 1
	Create                        // 2
	Update                        // 4
	Delete                        // 8
)

// permissionNames is the system-wide vocabulary. Bit positions are fixed;
// adding a permission is a one-line change here plus a FunctionMap entry.
var permissionNames = map[Permission]string{
	Read:   "read",
	Create: "create",
	Update: "update",
	Delete: "delete",
}

// Name returns the vocabulary name for the permission. Bits outside the
// declared vocabulary render as "bit<value>" so reports stay exact.
func (p Permission) Name() string {
	if name, ok := permissionNames[p]; ok {
		return name
	}
	return fmt.Sprintf("bit%d", uint32(p))
}

// Mask is a combined set of permissions for one function.
type Mask uint32

// Encode combines permissions into a mask.
func Encode(perms ...Permission) Mask {
	var m Mask
	for _, p := range perms {
		m |= Mask(p)
	}
	return m
}

// Has reports whether the permission bit is set.
func (m Mask) Has(p Permission) bool {
	return m&Mask(p) != 0
}

// permissions expands a mask into its individual bits, lowest first.
func (m Mask) permissions() []Permission {
	out := make([]Permission, 0, bits.OnesCount32(uint32(m)))
	for v := uint32(m); v != 0; v &= v - 1 {
		out = append(out, Permission(v&-v))
	}
	return out
}

// Grant is one (function, mask) pair held by a user. It mirrors the stored
// authority row and is what gates and token payloads carry around.
type Grant struct {
	FunctionKey string `json:"functionKey"`
	Authority   Mask   `json:"authority"`
}

// FunctionMap declares, per function key, the permissions that function
// supports. It is plain configuration: construct it once at startup (or in a
// test fixture) and hand it to NewVerifier, which copies it.
type FunctionMap map[string][]Permission

// Keys returns the declared function keys in sorted order.
func (fm FunctionMap) Keys() []string {
	keys := make([]string, 0, len(fm))
	for k := range fm {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DefaultFunctionMap returns the platform function catalog.
func DefaultFunctionMap() FunctionMap {
	return FunctionMap{
		// platform administration
		"P_P01": {Read, Update},                 // dashboard
		"P_P02": {Read, Create, Update},         // enterprise management
		"P_P03": {Read, Create, Update, Delete}, // vehicle management
		"P_P11": {Read, Create, Update, Delete}, // account management
	}
}

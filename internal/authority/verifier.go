package authority

import (
	"github.com/milan604/ops-admin/pkg/apperr"
)

// Verifier answers two questions: is a requested mask legal for a function,
// and does a user's grant set carry a required permission. It is immutable
// after construction and safe for concurrent use.
type Verifier struct {
	legal map[string]Mask
}

// NewVerifier builds a Verifier from the declared function map. The map is
// copied; later mutation of fm has no effect.
func NewVerifier(fm FunctionMap) *Verifier {
	legal := make(map[string]Mask, len(fm))
	for key, perms := range fm {
		legal[key] = Encode(perms...)
	}
	return &Verifier{legal: legal}
}

// Declared reports whether the function key exists in the catalog. Callers
// must reject undeclared keys before any mask verification.
func (v *Verifier) Declared(functionKey string) bool {
	_, ok := v.legal[functionKey]
	return ok
}

// LegalMask returns the full mask a function supports (0 for unknown keys).
func (v *Verifier) LegalMask(functionKey string) Mask {
	return v.legal[functionKey]
}

// Decode lists the names of permissions that are both set in the mask and
// declared for the function. Undeclared bits are dropped here; validation of
// such bits is VerifyFunctionAuthority's job.
func (v *Verifier) Decode(mask Mask, functionKey string) []string {
	set := mask & v.legal[functionKey]
	names := make([]string, 0, 4)
	for _, p := range set.permissions() {
		names = append(names, p.Name())
	}
	return names
}

// CheckResult reports whether a requested mask fits inside a function's
// declared mask, naming every illegal bit.
type CheckResult struct {
	IsValid              bool     `json:"isValid"`
	InvalidAuthorityList []string `json:"invalidAuthorityList"`
}

// VerifyFunctionAuthority checks that the requested mask is a bitwise subset
// of the function's declared mask. InvalidAuthorityList enumerates exactly
// the bits that fall outside it.
func (v *Verifier) VerifyFunctionAuthority(functionKey string, mask Mask) CheckResult {
	illegal := mask &^ v.legal[functionKey]
	result := CheckResult{IsValid: illegal == 0, InvalidAuthorityList: []string{}}
	for _, p := range illegal.permissions() {
		result.InvalidAuthorityList = append(result.InvalidAuthorityList, p.Name())
	}
	return result
}

// RequireUserPermission is the hard gate in front of every protected
// operation. It finds the caller's grant for the function (no grant means
// mask 0) and fails with a forbidden error when the required bit is absent.
func (v *Verifier) RequireUserPermission(grants []Grant, functionKey string, required Permission) error {
	var mask Mask
	for _, g := range grants {
		if g.FunctionKey == functionKey {
			mask = g.Authority
			break
		}
	}
	if !mask.Has(required) {
		return apperr.New(apperr.ErrorCodeForbidden).
			WithMessage("insufficient authority for function " + functionKey)
	}
	return nil
}

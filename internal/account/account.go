// Package account implements admin account management: listing, creation,
// update, deletion and credential checks. Every mutating or reading operation
// is gated on the caller's grant for the account management function.
package account

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/milan604/ops-admin/internal/authority"
	"github.com/milan604/ops-admin/internal/model"
	"github.com/milan604/ops-admin/internal/store"
	"github.com/milan604/ops-admin/pkg/apperr"
	"github.com/milan604/ops-admin/pkg/logger"
	"github.com/milan604/ops-admin/pkg/utils"
)

// FunctionKey is the platform function that gates account management.
const FunctionKey = "P_P11"

const (
	maxNameLength      = 32
	bcryptCost         = 10
	defaultPasswordTag = "AAAA"
)

// Caller identifies the authenticated operator performing an operation.
type Caller struct {
	ID     uint
	Grants []authority.Grant
}

// TxRunner is the transactional slice of the store the service needs.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(r store.Repos) error) error
}

// Service is the account management service.
type Service struct {
	repos    store.Repos
	tx       TxRunner
	verifier *authority.Verifier
	log      logger.LogManager
}

func NewService(repos store.Repos, tx TxRunner, verifier *authority.Verifier, log logger.LogManager) *Service {
	return &Service{repos: repos, tx: tx, verifier: verifier, log: log}
}

// CreateRequest carries the fields for a new account.
type CreateRequest struct {
	Name        string            `json:"name" binding:"required"`
	Mobile      string            `json:"mobile" binding:"required"`
	Email       string            `json:"email" binding:"required"`
	Authorities []authority.Grant `json:"authorities"`
}

// UpdateRequest carries the replacement fields for an existing account.
type UpdateRequest struct {
	Name        string            `json:"name" binding:"required"`
	Mobile      string            `json:"mobile" binding:"required"`
	Email       string            `json:"email" binding:"required"`
	Authorities []authority.Grant `json:"authorities"`
}

// Authenticate resolves the account (mobile number or email) and checks the
// password. The two failure modes are reported distinctly, as the admin UI
// shows them to operators, not end users.
func (s *Service) Authenticate(ctx context.Context, account, password string) (*model.User, error) {
	if !utils.IsValidEmail(account) && !utils.IsTaiwanMobile(account) {
		return nil, apperr.New(apperr.ErrorCodeValidationFail).
			AddSuggestion("account", "account must be an email or a mobile number")
	}
	u, err := s.repos.Users.FindByAccount(ctx, account)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.New(apperr.ErrorCodeValidationFail).WithMessage("account not found")
		}
		return nil, apperr.New(apperr.ErrorCodeStorage).Wrap(err)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return nil, apperr.New(apperr.ErrorCodeValidationFail).WithMessage("wrong password")
	}
	return u, nil
}

// List returns accounts matching the filter, plus the unpaged total.
func (s *Service) List(ctx context.Context, caller Caller, f store.ListFilter, p store.Page) ([]model.User, int64, error) {
	if err := s.verifier.RequireUserPermission(caller.Grants, FunctionKey, authority.Read); err != nil {
		return nil, 0, err
	}
	users, total, err := s.repos.Users.List(ctx, f, p)
	if err != nil {
		return nil, 0, apperr.New(apperr.ErrorCodeStorage).Wrap(err)
	}
	return users, total, nil
}

// Get returns one account with its grants.
func (s *Service) Get(ctx context.Context, caller Caller, id uint) (*model.User, error) {
	if err := s.verifier.RequireUserPermission(caller.Grants, FunctionKey, authority.Read); err != nil {
		return nil, err
	}
	u, err := s.repos.Users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.New(apperr.ErrorCodeValidationFail).WithMessage("account not found")
		}
		return nil, apperr.New(apperr.ErrorCodeStorage).Wrap(err)
	}
	return u, nil
}

// Create validates the request, hashes the default password and stores the
// account together with its grants.
func (s *Service) Create(ctx context.Context, caller Caller, req CreateRequest) (*model.User, error) {
	if err := s.verifier.RequireUserPermission(caller.Grants, FunctionKey, authority.Create); err != nil {
		return nil, err
	}
	if err := s.validateFields(req.Name, req.Mobile, req.Email, req.Authorities); err != nil {
		return nil, err
	}
	if err := s.checkUniqueness(ctx, req.Mobile, req.Email, 0); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(defaultPassword(req.Mobile)), bcryptCost)
	if err != nil {
		return nil, apperr.New(apperr.ErrorCodeInternal).Wrap(err)
	}

	u := &model.User{
		Name:     req.Name,
		Mobile:   req.Mobile,
		Email:    req.Email,
		Password: string(hash),
	}
	u.CreatedBy = utils.Ptr(caller.ID)
	for _, g := range req.Authorities {
		row := model.Authority{FunctionKey: g.FunctionKey, Authority: g.Authority}
		row.CreatedBy = utils.Ptr(caller.ID)
		u.Authorities = append(u.Authorities, row)
	}

	if err := s.repos.Users.Create(ctx, u); err != nil {
		s.log.ErrorFCtx(ctx, "create account %q: %v", req.Email, err)
		return nil, apperr.New(apperr.ErrorCodeStorage).Wrap(err)
	}
	return u, nil
}

// Update rewrites the account fields and replaces its grant set. The user
// update and the grant replacement commit or roll back together.
func (s *Service) Update(ctx context.Context, caller Caller, id uint, req UpdateRequest) (*model.User, error) {
	if err := s.verifier.RequireUserPermission(caller.Grants, FunctionKey, authority.Update); err != nil {
		return nil, err
	}
	if err := s.validateFields(req.Name, req.Mobile, req.Email, req.Authorities); err != nil {
		return nil, err
	}

	current, err := s.repos.Users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.New(apperr.ErrorCodeValidationFail).WithMessage("account not found")
		}
		return nil, apperr.New(apperr.ErrorCodeStorage).Wrap(err)
	}

	// Uniqueness is re-checked only for fields that actually change.
	mobile, email := req.Mobile, req.Email
	if mobile == current.Mobile {
		mobile = ""
	}
	if email == current.Email {
		email = ""
	}
	if err := s.checkUniqueness(ctx, mobile, email, id); err != nil {
		return nil, err
	}

	rows := make([]model.Authority, 0, len(req.Authorities))
	for _, g := range req.Authorities {
		row := model.Authority{UserID: id, FunctionKey: g.FunctionKey, Authority: g.Authority}
		row.CreatedBy = utils.Ptr(caller.ID)
		rows = append(rows, row)
	}

	err = s.tx.WithTx(ctx, func(r store.Repos) error {
		u := &model.User{
			Audited: model.Audited{ID: id, UpdatedBy: utils.Ptr(caller.ID)},
			Name:    req.Name,
			Mobile:  req.Mobile,
			Email:   req.Email,
		}
		if err := r.Users.Update(ctx, u); err != nil {
			return err
		}
		return r.Users.ReplaceAuthorities(ctx, id, rows, caller.ID)
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.New(apperr.ErrorCodeValidationFail).WithMessage("account not found")
		}
		s.log.ErrorFCtx(ctx, "update account %d: %v", id, err)
		return nil, apperr.New(apperr.ErrorCodeStorage).Wrap(err)
	}

	updated, err := s.repos.Users.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.New(apperr.ErrorCodeStorage).Wrap(err)
	}
	return updated, nil
}

// Delete soft-deletes the account and its grants and purges its sessions in
// one transaction, so the account's tokens stop verifying immediately.
func (s *Service) Delete(ctx context.Context, caller Caller, id uint) error {
	if err := s.verifier.RequireUserPermission(caller.Grants, FunctionKey, authority.Delete); err != nil {
		return err
	}
	err := s.tx.WithTx(ctx, func(r store.Repos) error {
		if err := r.Users.SoftDelete(ctx, id, caller.ID); err != nil {
			return err
		}
		return r.Sessions.DeleteByUser(ctx, id)
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.New(apperr.ErrorCodeValidationFail).WithMessage("account not found")
		}
		s.log.ErrorFCtx(ctx, "delete account %d: %v", id, err)
		return apperr.New(apperr.ErrorCodeStorage).Wrap(err)
	}
	return nil
}

func (s *Service) validateFields(name, mobile, email string, grants []authority.Grant) error {
	ae := apperr.New(apperr.ErrorCodeValidationFail)
	valid := true

	if name == "" || len([]rune(name)) > maxNameLength {
		ae.AddSuggestion("name", "name is required and at most 32 characters")
		valid = false
	}
	if !utils.IsTaiwanMobile(mobile) {
		ae.AddSuggestion("mobile", "mobile must be a valid mobile number")
		valid = false
	}
	if !utils.IsValidEmail(email) {
		ae.AddSuggestion("email", "email must be a valid email address")
		valid = false
	}

	seen := map[string]bool{}
	for _, g := range grants {
		if seen[g.FunctionKey] {
			ae.AddSuggestion("authorities", "duplicate functionKey "+g.FunctionKey)
			valid = false
			continue
		}
		seen[g.FunctionKey] = true
		if !s.verifier.Declared(g.FunctionKey) {
			ae.AddSuggestion("authorities", "unknown functionKey "+g.FunctionKey)
			valid = false
			continue
		}
		if check := s.verifier.VerifyFunctionAuthority(g.FunctionKey, g.Authority); !check.IsValid {
			for _, name := range check.InvalidAuthorityList {
				ae.AddSuggestion("authorities", g.FunctionKey+" does not support "+name)
			}
			valid = false
		}
	}

	if !valid {
		return ae
	}
	return nil
}

func (s *Service) checkUniqueness(ctx context.Context, mobile, email string, excludeID uint) error {
	if mobile != "" {
		taken, err := s.repos.Users.ExistsMobile(ctx, mobile, excludeID)
		if err != nil {
			return apperr.New(apperr.ErrorCodeStorage).Wrap(err)
		}
		if taken {
			return apperr.New(apperr.ErrorCodeConflict).WithMessage("mobile already in use")
		}
	}
	if email != "" {
		taken, err := s.repos.Users.ExistsEmail(ctx, email, excludeID)
		if err != nil {
			return apperr.New(apperr.ErrorCodeStorage).Wrap(err)
		}
		if taken {
			return apperr.New(apperr.ErrorCodeConflict).WithMessage("email already in use")
		}
	}
	return nil
}

// defaultPassword derives the initial password from the mobile number: its
// last six digits followed by a fixed tag.
func defaultPassword(mobile string) string {
	tail := mobile
	if len(tail) > 6 {
		tail = tail[len(tail)-6:]
	}
	return tail + defaultPasswordTag
}

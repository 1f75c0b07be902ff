// Package storetest provides in-memory fakes for the store interfaces so
// service tests run without a database.
package storetest

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/milan604/ops-admin/internal/model"
	"github.com/milan604/ops-admin/internal/store"
)

// Fake holds the in-memory state and satisfies the Repos interfaces.
type Fake struct {
	mu sync.Mutex

	users    map[uint]*model.User
	sessions map[string]*model.AuthToken
	nextID   uint

	// FailWith, when set, is returned by every mutating call. Lets tests
	// exercise storage error paths.
	FailWith error
}

func New() *Fake {
	return &Fake{
		users:    map[uint]*model.User{},
		sessions: map[string]*model.AuthToken{},
		nextID:   1,
	}
}

// Repos returns the fake wired as a store.Repos.
func (f *Fake) Repos() store.Repos {
	return store.Repos{Users: (*fakeUsers)(f), Sessions: (*fakeSessions)(f)}
}

// WithTx satisfies the transaction runner contract. The fake has no real
// transactionality; fn simply runs against the shared state.
func (f *Fake) WithTx(_ context.Context, fn func(r store.Repos) error) error {
	if f.FailWith != nil {
		return f.FailWith
	}
	return fn(f.Repos())
}

// SeedUser inserts a user (with grants) and returns its assigned id.
func (f *Fake) SeedUser(u model.User) uint {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u.ID == 0 {
		u.ID = f.nextID
		f.nextID++
	} else if u.ID >= f.nextID {
		f.nextID = u.ID + 1
	}
	for i := range u.Authorities {
		u.Authorities[i].UserID = u.ID
	}
	f.users[u.ID] = &u
	return u.ID
}

// SeedSession inserts a session row.
func (f *Fake) SeedSession(t model.AuthToken) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[t.Token] = &t
}

// Session returns the stored row for a token, or nil.
func (f *Fake) Session(token string) *model.AuthToken {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.sessions[token]; ok {
		cp := *t
		return &cp
	}
	return nil
}

// SessionCount reports the number of live session rows.
func (f *Fake) SessionCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sessions)
}

// User returns a copy of the stored user, or nil.
func (f *Fake) User(id uint) *model.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		cp := *u
		return &cp
	}
	return nil
}

type fakeUsers Fake

func (f *fakeUsers) FindByID(_ context.Context, id uint) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) FindByAccount(_ context.Context, account string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Mobile == account || u.Email == account {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeUsers) List(_ context.Context, filter store.ListFilter, p store.Page) ([]model.User, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	matched := make([]model.User, 0, len(f.users))
	for _, u := range f.users {
		if filter.Name != "" && !strings.Contains(strings.ToLower(u.Name), strings.ToLower(filter.Name)) {
			continue
		}
		if filter.Mobile != "" && !strings.Contains(u.Mobile, filter.Mobile) {
			continue
		}
		if filter.Email != "" && !strings.Contains(strings.ToLower(u.Email), strings.ToLower(filter.Email)) {
			continue
		}
		matched = append(matched, *u)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	total := int64(len(matched))

	off := p.Offset()
	if off > len(matched) {
		off = len(matched)
	}
	end := len(matched)
	if p.Limit > 0 && off+p.Limit < end {
		end = off + p.Limit
	}
	return matched[off:end], total, nil
}

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	if f.FailWith != nil {
		return f.FailWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u.ID = f.nextID
	f.nextID++
	for i := range u.Authorities {
		u.Authorities[i].UserID = u.ID
	}
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeUsers) Update(_ context.Context, u *model.User) error {
	if f.FailWith != nil {
		return f.FailWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.users[u.ID]
	if !ok {
		return store.ErrNotFound
	}
	cur.Name = u.Name
	cur.Mobile = u.Mobile
	cur.Email = u.Email
	cur.UpdatedBy = u.UpdatedBy
	return nil
}

func (f *fakeUsers) ExistsMobile(_ context.Context, mobile string, excludeID uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, u := range f.users {
		if id != excludeID && u.Mobile == mobile {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUsers) ExistsEmail(_ context.Context, email string, excludeID uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, u := range f.users {
		if id != excludeID && u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUsers) ReplaceAuthorities(_ context.Context, userID uint, rows []model.Authority, _ uint) error {
	if f.FailWith != nil {
		return f.FailWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	for i := range rows {
		rows[i].UserID = userID
	}
	u.Authorities = rows
	return nil
}

func (f *fakeUsers) SoftDelete(_ context.Context, id uint, _ uint) error {
	if f.FailWith != nil {
		return f.FailWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.users, id)
	return nil
}

type fakeSessions Fake

func (f *fakeSessions) FindByToken(_ context.Context, token string) (*model.AuthToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.sessions[token]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeSessions) Create(_ context.Context, t *model.AuthToken) error {
	if f.FailWith != nil {
		return f.FailWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t.ID = f.nextID
	f.nextID++
	cp := *t
	f.sessions[t.Token] = &cp
	return nil
}

func (f *fakeSessions) UpdateToken(_ context.Context, oldToken, newToken string) error {
	if f.FailWith != nil {
		return f.FailWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.sessions[oldToken]
	if !ok {
		return store.ErrNotFound
	}
	delete(f.sessions, oldToken)
	t.Token = newToken
	f.sessions[newToken] = t
	return nil
}

func (f *fakeSessions) Delete(_ context.Context, token string) error {
	if f.FailWith != nil {
		return f.FailWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, token)
	return nil
}

func (f *fakeSessions) DeleteByUser(_ context.Context, userID uint) error {
	if f.FailWith != nil {
		return f.FailWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for token, t := range f.sessions {
		if t.UserID == userID {
			delete(f.sessions, token)
		}
	}
	return nil
}

package credentials

import (
	"fmt"
	"sync"
	"time"
)

// Fake is an in-memory Service for tests. The function fields, when
// set, override the default behavior so tests can force failures.
type Fake struct {
	mu        sync.Mutex
	nextRef   int64
	byEmail   map[string]fakeCredential
	resets    map[string]fakeReset
	nextToken int64

	// TokenTTL lets tests mint already-expired reset tokens. Zero means
	// the real TTL.
	TokenTTL time.Duration

	CreateFunc       func(email, password string) (int64, error)
	AuthenticateFunc func(email, password string) (int64, error)
}

type fakeCredential struct {
	ref      int64
	password string
}

type fakeReset struct {
	email   string
	expires time.Time
}

func NewFake() *Fake {
	return &Fake{
		nextRef: 1,
		byEmail: make(map[string]fakeCredential),
		resets:  make(map[string]fakeReset),
	}
}

func (f *Fake) Create(email, password string) (int64, error) {
	if f.CreateFunc != nil {
		return f.CreateFunc(email, password)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byEmail[email]; ok {
		return 0, ErrEmailTaken
	}
	ref := f.nextRef
	f.nextRef++
	f.byEmail[email] = fakeCredential{ref: ref, password: password}
	return ref, nil
}

func (f *Fake) Authenticate(email, password string) (int64, error) {
	if f.AuthenticateFunc != nil {
		return f.AuthenticateFunc(email, password)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cred, ok := f.byEmail[email]
	if !ok || cred.password != password {
		return 0, ErrInvalidCredentials
	}
	return cred.ref, nil
}

func (f *Fake) ChangeSecret(ref int64, oldPassword, newPassword string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for email, cred := range f.byEmail {
		if cred.ref == ref {
			if cred.password != oldPassword {
				return ErrInvalidCredentials
			}
			f.byEmail[email] = fakeCredential{ref: ref, password: newPassword}
			return nil
		}
	}
	return ErrInvalidCredentials
}

func (f *Fake) CreateResetToken(email string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byEmail[email]; !ok {
		return "", ErrInvalidCredentials
	}
	ttl := f.TokenTTL
	if ttl == 0 {
		ttl = resetTokenTTL
	}
	f.nextToken++
	token := fmt.Sprintf("reset-%d", f.nextToken)
	f.resets[token] = fakeReset{email: email, expires: time.Now().Add(ttl)}
	return token, nil
}

func (f *Fake) ResetSecret(token, newPassword string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	reset, ok := f.resets[token]
	if !ok {
		return ErrInvalidResetToken
	}
	delete(f.resets, token)
	if time.Now().After(reset.expires) {
		return ErrInvalidResetToken
	}
	cred := f.byEmail[reset.email]
	f.byEmail[reset.email] = fakeCredential{ref: cred.ref, password: newPassword}
	return nil
}

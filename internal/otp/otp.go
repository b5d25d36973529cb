// Package otp issues, delivers and consumes the single-use numeric codes that
// gate a user's email_verified flag. The code and its expiry live inline on
// the user row and are always written or cleared as a pair.
package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"astrapilot/internal/models"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrNoPendingCode = errors.New("no pending verification code")
	ErrCodeExpired   = errors.New("verification code expired")
	ErrCodeMismatch  = errors.New("incorrect verification code")
	ErrSendFailed    = errors.New("failed to send verification email")
)

// Store is the slice of user persistence the manager needs. MarkEmailVerified
// must set the flag and clear the code pair in a single write.
type Store interface {
	UserByID(ctx context.Context, id int64) (models.User, bool, error)
	SetUserOTP(ctx context.Context, userID int64, code string, expires time.Time) error
	ClearUserOTP(ctx context.Context, userID int64) error
	MarkEmailVerified(ctx context.Context, userID int64) error
}

// Notifier delivers a verification code to a registered address.
type Notifier interface {
	SendOTP(to, code, username string) error
}

type Manager struct {
	store    Store
	notifier Notifier
	expiry   time.Duration
	length   int
	now      func() time.Time

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func NewManager(store Store, notifier Notifier, expiry time.Duration, length int) *Manager {
	if length <= 0 {
		length = 6
	}
	return &Manager{
		store:    store,
		notifier: notifier,
		expiry:   expiry,
		length:   length,
		now:      time.Now,
		locks:    make(map[int64]*sync.Mutex),
	}
}

func (m *Manager) userLock(userID int64) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[userID] = lock
	}
	return lock
}

// Generate returns a fixed-length numeric code. Each digit is drawn
// independently from crypto/rand, so the output is unbiased.
func (m *Manager) Generate() (string, error) {
	var b strings.Builder
	b.Grow(m.length)
	for i := 0; i < m.length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}

// CreateAndSend issues a fresh code for the user, overwriting any prior
// pending code, and delivers it by email. The code is persisted before the
// send attempt: a failed delivery leaves a pending code that can still be
// verified or reissued.
func (m *Manager) CreateAndSend(ctx context.Context, userID int64) error {
	lock := m.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	user, ok, err := m.store.UserByID(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}

	code, err := m.Generate()
	if err != nil {
		return err
	}
	expires := m.now().UTC().Add(m.expiry)
	if err := m.store.SetUserOTP(ctx, userID, code, expires); err != nil {
		return err
	}

	if err := m.notifier.SendOTP(user.Email, code, user.Username); err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	return nil
}

// Verify consumes the pending code. An expired pair is cleared even though
// the call fails; a wrong code leaves the pending pair intact so the user
// may retry until expiry.
func (m *Manager) Verify(ctx context.Context, userID int64, code string) error {
	lock := m.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	user, ok, err := m.store.UserByID(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	if user.OTPCode == nil || user.OTPExpires == nil {
		return ErrNoPendingCode
	}

	if m.now().UTC().After(*user.OTPExpires) {
		if err := m.store.ClearUserOTP(ctx, userID); err != nil {
			return err
		}
		return ErrCodeExpired
	}

	// Exact string match, no normalization.
	if *user.OTPCode != code {
		return ErrCodeMismatch
	}
	return m.store.MarkEmailVerified(ctx, userID)
}

// Resend is an unconditional reissue; any previously issued code is
// invalidated by the overwrite in CreateAndSend. Refusing a resend for an
// already verified user is the caller's policy, not this manager's.
func (m *Manager) Resend(ctx context.Context, userID int64) error {
	return m.CreateAndSend(ctx, userID)
}

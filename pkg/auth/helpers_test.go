package auth

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// testSecret はテスト用のJWTシークレット。
const testSecret = "test-secret-key-for-unit-tests"

// signToken はテスト用にclaimsをHS256で署名したトークンを生成する。
func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("トークンの署名に失敗: %v", err)
	}
	return signed
}

// validClaims は有効期限内の基本クレームを返す。
func validClaims(sub string, role any) jwt.MapClaims {
	claims := jwt.MapClaims{
		"sub":   sub,
		"email": sub + "@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
	if role != nil {
		claims["role"] = role
	}
	return claims
}

// stubDirectory は呼び出し回数を記録するテスト用Directory。
type stubDirectory struct {
	mu           sync.Mutex
	profiles     map[string]string
	grants       map[string]bool
	err          error
	profileCalls atomic.Int64
	grantCalls   atomic.Int64
}

func newStubDirectory() *stubDirectory {
	return &stubDirectory{
		profiles: make(map[string]string),
		grants:   make(map[string]bool),
	}
}

func (d *stubDirectory) ProfileRole(_ context.Context, subjectID string) (string, bool, error) {
	d.profileCalls.Add(1)
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return "", false, d.err
	}
	role, ok := d.profiles[subjectID]
	return role, ok, nil
}

func (d *stubDirectory) HasRoleGrant(_ context.Context, subjectID, role string) (bool, error) {
	d.grantCalls.Add(1)
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return false, d.err
	}
	return d.grants[subjectID+"/"+role], nil
}

func (d *stubDirectory) setErr(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.err = err
}

// calls はProfileRoleの呼び出し回数を返す。1回の昇格問い合わせは必ずProfileRoleから始まる。
func (d *stubDirectory) calls() int64 {
	return d.profileCalls.Load()
}

// errDirectoryDown はDirectory障害を表すテスト用エラー。
var errDirectoryDown = errors.New("directory unreachable")

// fakeClock はテスト用の進められる時計。
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

package auth

import (
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultRoleTTL はDirectory問い合わせ結果をキャッシュする期間。
const DefaultRoleTTL = 5 * time.Minute

// roleEntry はDirectory問い合わせ結果のキャッシュエントリ。
// 肯定・否定の結果を区別せずに同じ形で保持する。
type roleEntry struct {
	isAdmin  bool
	cachedAt time.Time
}

// fresh はエントリがttl以内に作成されたかを判定する。
// 古いエントリは期限切れとして使うのではなく、存在しないものとして扱う。
func (e roleEntry) fresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.cachedAt) < ttl
}

// roleStore はキャッシュエントリの格納先。単一キーの読み書きはアトミックであること。
type roleStore interface {
	load(id string) (roleEntry, bool)
	store(id string, e roleEntry)
	len() int
}

// syncMapStore はサイズ上限のない格納先。エントリは削除されず、
// 増加は観測したPrincipal IDの種類数に比例する。
type syncMapStore struct {
	m sync.Map
}

func (s *syncMapStore) load(id string) (roleEntry, bool) {
	v, ok := s.m.Load(id)
	if !ok {
		return roleEntry{}, false
	}
	return v.(roleEntry), true
}

func (s *syncMapStore) store(id string, e roleEntry) {
	s.m.Store(id, e)
}

func (s *syncMapStore) len() int {
	n := 0
	s.m.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// lruStore は件数上限付きの格納先。WithMaxEntriesを指定した場合のみ使用する。
type lruStore struct {
	c *lru.Cache[string, roleEntry]
}

func (s *lruStore) load(id string) (roleEntry, bool) {
	return s.c.Get(id)
}

func (s *lruStore) store(id string, e roleEntry) {
	s.c.Add(id, e)
}

func (s *lruStore) len() int {
	return s.c.Len()
}

// RoleCache はPrincipal IDをキーにDirectoryのadmin判定結果をTTL付きで保持する。
// 複数のリクエストから並行に読み書きされる唯一の共有状態。
// 同一キーへの競合する書き込みは後勝ちとなる。
type RoleCache struct {
	store      roleStore
	ttl        time.Duration
	now        func() time.Time
	maxEntries int
}

// RoleCacheOption はRoleCacheの設定を変更する関数。
type RoleCacheOption func(*RoleCache)

// WithTTL はキャッシュの有効期間を設定する。
func WithTTL(ttl time.Duration) RoleCacheOption {
	return func(c *RoleCache) {
		c.ttl = ttl
	}
}

// WithClock は現在時刻の取得関数を差し替える。
func WithClock(now func() time.Time) RoleCacheOption {
	return func(c *RoleCache) {
		c.now = now
	}
}

// WithMaxEntries はキャッシュ件数の上限を設定し、超過時はLRUで追い出す。
// 0以下の場合は上限なし（既定）となる。
func WithMaxEntries(n int) RoleCacheOption {
	return func(c *RoleCache) {
		c.maxEntries = n
	}
}

// NewRoleCache は新しいRoleCacheを生成する。
func NewRoleCache(opts ...RoleCacheOption) (*RoleCache, error) {
	c := &RoleCache{
		ttl: DefaultRoleTTL,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.maxEntries > 0 {
		bounded, err := lru.New[string, roleEntry](c.maxEntries)
		if err != nil {
			return nil, fmt.Errorf("ロールキャッシュの生成に失敗: %w", err)
		}
		c.store = &lruStore{c: bounded}
	} else {
		c.store = &syncMapStore{}
	}
	return c, nil
}

// Get はidに対する有効期間内のキャッシュ結果を返す。
// エントリが無い、またはTTLを過ぎている場合はokがfalseとなる。
func (c *RoleCache) Get(id string) (isAdmin bool, ok bool) {
	e, found := c.store.load(id)
	if !found || !e.fresh(c.now(), c.ttl) {
		return false, false
	}
	return e.isAdmin, true
}

// Put はidに対する判定結果を現在時刻とともに上書き保存する。
func (c *RoleCache) Put(id string, isAdmin bool) {
	c.store.store(id, roleEntry{isAdmin: isAdmin, cachedAt: c.now()})
}

// Len は保持しているエントリ数を返す。期限切れのエントリも含む。
func (c *RoleCache) Len() int {
	return c.store.len()
}

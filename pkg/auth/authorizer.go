package auth

import (
	"context"
	"errors"
	"log"
	"strings"
)

var (
	// ErrUnauthenticated はPrincipalが存在しないことを表す。
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden はPrincipalが要求ロールを持たないことを表す。
	ErrForbidden = errors.New("forbidden")
)

// Decision は認可判定の結果。
type Decision struct {
	// Roles はこの判定で有効だったロールの集合。昇格した場合はadminを含む。
	Roles []string
	// Escalated はDirectory（またはそのキャッシュ）によってadminに昇格したかを表す。
	Escalated bool
}

// Authorizer はPrincipalと要求ロールから許可・拒否を判定する。
// Directoryへ問い合わせる唯一のコンポーネントで、問い合わせは必ずRoleCacheを経由する。
type Authorizer struct {
	cache     *RoleCache
	directory Directory
}

// NewAuthorizer は新しいAuthorizerを生成する。
// directoryがnilの場合、昇格は常に失敗する。
func NewAuthorizer(cache *RoleCache, directory Directory) *Authorizer {
	return &Authorizer{
		cache:     cache,
		directory: directory,
	}
}

// Authorize はPrincipalがrequiredのいずれかのロールを持つかを判定する。
//
// トークン内のロールで足りない場合、署名付きトークン由来のPrincipalに限り
// adminへの昇格をRoleCache、キャッシュミス時はDirectoryで確認する。
// Directory障害時は昇格せずに拒否し、その結果はキャッシュしない。
func (a *Authorizer) Authorize(ctx context.Context, p *Principal, required ...string) (Decision, error) {
	if p == nil {
		return Decision{}, ErrUnauthenticated
	}

	if p.HasAnyRole(required...) {
		return Decision{Roles: p.Roles}, nil
	}

	if p.Provider != ProviderSignedToken || p.ID == "" {
		return Decision{Roles: p.Roles}, ErrForbidden
	}

	isAdmin, ok := a.cache.Get(p.ID)
	if !ok {
		var err error
		isAdmin, err = a.lookupAdmin(ctx, p.ID)
		if err != nil {
			log.Printf("[Authz] Directory問い合わせに失敗したため昇格を拒否: subject=%s, error=%v", p.ID, err)
			return Decision{Roles: p.Roles}, ErrForbidden
		}
		a.cache.Put(p.ID, isAdmin)
	}

	if _, wantsAdmin := roleSet(required)[RoleAdmin]; isAdmin && wantsAdmin {
		return Decision{Roles: withRole(p.Roles, RoleAdmin), Escalated: true}, nil
	}
	return Decision{Roles: p.Roles}, ErrForbidden
}

// lookupAdmin はDirectoryに主体がadminかを問い合わせる。
func (a *Authorizer) lookupAdmin(ctx context.Context, subjectID string) (bool, error) {
	if a.directory == nil {
		return false, errors.New("Directoryが設定されていません")
	}
	return isPrivileged(ctx, a.directory, subjectID, RoleAdmin)
}

// withRole はrolesにroleを加えた新しいスライスを返す。既に含まれる場合はそのまま複製する。
func withRole(roles []string, role string) []string {
	out := make([]string, 0, len(roles)+1)
	found := false
	for _, r := range roles {
		if strings.EqualFold(r, role) {
			found = true
		}
		out = append(out, r)
	}
	if !found {
		out = append(out, role)
	}
	return out
}

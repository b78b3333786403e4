package directory

import (
	"context"
	"fmt"
	"net/url"

	"github.com/nao1215/travelgate/pkg/auth"
	"github.com/nao1215/travelgate/pkg/httpclient"
)

const (
	// restPathProfiles はprofilesテーブルのRESTエンドポイント。
	restPathProfiles = "/rest/v1/profiles"
	// restPathUserRoles はuser_rolesテーブルのRESTエンドポイント。
	restPathUserRoles = "/rest/v1/user_roles"
)

var _ auth.Directory = (*REST)(nil)

// REST はホスト型データベースのREST API（PostgREST形式）を参照するDirectory。
type REST struct {
	client *httpclient.Client
}

// NewREST は新しいRESTを生成する。serviceKeyはapikeyヘッダーとBearerトークンの両方に使う。
// 問い合わせにタイムアウトは設けない。必要な場合はoptsでhttpclient.WithTimeoutを指定する。
func NewREST(baseURL, serviceKey string, opts ...httpclient.Option) *REST {
	opts = append([]httpclient.Option{
		httpclient.WithTimeout(0),
		httpclient.WithHeader("apikey", serviceKey),
		httpclient.WithHeader("Authorization", "Bearer "+serviceKey),
	}, opts...)
	return &REST{client: httpclient.New(baseURL, opts...)}
}

// profileRow はprofilesの問い合わせ結果の1行。
type profileRow struct {
	Role *string `json:"role"`
}

// ProfileRole はprofilesテーブルのroleを返す。
func (r *REST) ProfileRole(ctx context.Context, subjectID string) (string, bool, error) {
	q := url.Values{}
	q.Set("id", "eq."+subjectID)
	q.Set("select", "role")
	q.Set("limit", "1")

	var rows []profileRow
	if err := r.client.GetJSON(ctx, restPathProfiles+"?"+q.Encode(), &rows); err != nil {
		return "", false, fmt.Errorf("profilesの取得に失敗: %w", err)
	}
	if len(rows) == 0 {
		return "", false, nil
	}
	if rows[0].Role == nil {
		return "", true, nil
	}
	return *rows[0].Role, true, nil
}

// HasRoleGrant はuser_rolesテーブルに主体とroleの組があるかを返す。
func (r *REST) HasRoleGrant(ctx context.Context, subjectID, role string) (bool, error) {
	q := url.Values{}
	q.Set("user_id", "eq."+subjectID)
	q.Set("role", "eq."+role)
	q.Set("select", "user_id")
	q.Set("limit", "1")

	var rows []map[string]any
	if err := r.client.GetJSON(ctx, restPathUserRoles+"?"+q.Encode(), &rows); err != nil {
		return false, fmt.Errorf("user_rolesの取得に失敗: %w", err)
	}
	return len(rows) > 0, nil
}

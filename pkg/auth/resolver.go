package auth

// Resolver は生トークンをPrincipalに解決する戦略。
//
// 解決できない場合は (nil, false) を返す。不正なトークンは想定内の入力であり
// エラーとしては扱わない。実装はステートレスかつ同期的であること。
type Resolver interface {
	Resolve(rawToken string) (*Principal, bool)
}

// ResolverFunc は関数をResolverとして扱うためのアダプタ。
type ResolverFunc func(rawToken string) (*Principal, bool)

// Resolve はf(rawToken)を呼び出す。
func (f ResolverFunc) Resolve(rawToken string) (*Principal, bool) {
	return f(rawToken)
}

// Chain は順序付きのResolverの列。先頭から順に試し、最初に成功した結果を採用する。
type Chain []Resolver

// NewChain はnilを除いたResolverの列からChainを生成する。
func NewChain(resolvers ...Resolver) Chain {
	chain := make(Chain, 0, len(resolvers))
	for _, r := range resolvers {
		if r != nil {
			chain = append(chain, r)
		}
	}
	return chain
}

// Resolve は各Resolverを順に試し、最初に解決できたPrincipalを返す。
// いずれも解決できない場合は (nil, false) を返す。
func (c Chain) Resolve(rawToken string) (*Principal, bool) {
	if rawToken == "" {
		return nil, false
	}
	for _, r := range c {
		if p, ok := r.Resolve(rawToken); ok && p != nil {
			return p, true
		}
	}
	return nil, false
}

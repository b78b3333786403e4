// API Gatewayサービスのエントリポイント。
// リクエストの認証、ロールによる認可、内部サービスへのルーティングを担当する。
// 外部からアクセス可能な唯一のサービスであり、セキュリティの境界線となる。
package main

import (
	"context"
	"log"

	"github.com/nao1215/travelgate/internal/gateway"
)

func main() {
	cfg, err := gateway.LoadConfig()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗: %v", err)
	}

	server, err := gateway.NewServer(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Gatewayサーバーの初期化に失敗: %v", err)
	}
	defer server.Close()

	log.Printf("Gatewayサービスを起動します: :%s (production=%v, directory=%s)", cfg.Port, cfg.Production, cfg.DirectoryBackend)
	if err := server.Run(); err != nil {
		log.Fatalf("Gatewayサービスの起動に失敗: %v", err)
	}
}

package cmd

import (
	"fmt"
	"os"

	clibase "github.com/shouni/go-cli-base"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shouni/go-web-diff/internal/config"
	"github.com/shouni/go-web-diff/internal/logging"
	"github.com/shouni/go-web-diff/internal/pipeline"
	"github.com/shouni/go-web-diff/pkg/fetcher"
)

// --- グローバル定数 ---

const appName = "web-diff"

// --- グローバル変数とフラグ構造体 ---

// AppFlags はこのアプリケーション固有の永続フラグを保持
type AppFlags struct {
	TimeoutSec  int     // --timeout 1回の試行ごとのタイムアウト
	MaxRetries  int     // --max-retries 最大試行回数 (初回を含む)
	BaseBackoff float64 // --backoff バックオフの底 (秒)
	RateLimit   float64 // --rate-limit 1秒あたりのリクエスト数上限
}

var (
	Flags         AppFlags       // アプリケーション固有フラグにアクセスするためのグローバル変数
	appConfig     config.Config  // .env と環境変数から読み込んだ設定 (フラグのデフォルト値)
	appLogger     = zap.NewNop() // initAppPreRunE で差し替えられる
	globalFetcher *fetcher.Client
)

// --- 初期化とロジック (clibaseへのコールバックとして利用) ---

// addAppPersistentFlags は、アプリケーション固有の永続フラグをルートコマンドに追加します。
func addAppPersistentFlags(rootCmd *cobra.Command) {
	rootCmd.PersistentFlags().IntVar(
		&Flags.TimeoutSec,
		"timeout",
		appConfig.TimeoutSec,
		"HTTPリクエスト1回あたりのタイムアウト時間（秒）",
	)
	rootCmd.PersistentFlags().IntVar(
		&Flags.MaxRetries,
		"max-retries",
		appConfig.MaxRetries,
		"HTTPリクエストの最大試行回数（初回を含む）",
	)
	rootCmd.PersistentFlags().Float64Var(
		&Flags.BaseBackoff,
		"backoff",
		appConfig.BaseBackoff,
		"リトライ待機の底（秒）。i回目の失敗後に backoff^i 秒待機します",
	)
	rootCmd.PersistentFlags().Float64Var(
		&Flags.RateLimit,
		"rate-limit",
		appConfig.RateLimitRPS,
		"1秒あたりの最大リクエスト数（0で無制限）",
	)
}

// initAppPreRunE は、clibase共通処理の後に実行される、アプリケーション固有のPersistentPreRunEです。
// NOTE: clibaseの PersistentPreRunE チェーンにより、clibase.Flags.Verbose はこの関数実行前に設定済み
func initAppPreRunE(cmd *cobra.Command, args []string) error {
	logger, err := logging.New(clibase.Flags.Verbose)
	if err != nil {
		return fmt.Errorf("ロガーの初期化に失敗しました: %w", err)
	}
	appLogger = logger

	appConfig.TimeoutSec = Flags.TimeoutSec
	appConfig.MaxRetries = Flags.MaxRetries
	appConfig.BaseBackoff = Flags.BaseBackoff
	appConfig.RateLimitRPS = Flags.RateLimit
	if err := appConfig.Validate(); err != nil {
		return fmt.Errorf("フラグの値が不正です: %w", err)
	}

	appLogger.Debug("HTTPクライアントを設定しました",
		zap.Int("timeout_sec", appConfig.TimeoutSec),
		zap.Int("max_retries", appConfig.MaxRetries),
		zap.Float64("backoff", appConfig.BaseBackoff),
		zap.Float64("rate_limit", appConfig.RateLimitRPS),
	)

	// 共有フェッチャーの初期化
	globalFetcher = pipeline.NewFetcher(appConfig, appLogger)
	return nil
}

// GetGlobalFetcher は、初期化されたフェッチャーを返す関数 (DIの代わり)
func GetGlobalFetcher() *fetcher.Client {
	return globalFetcher
}

// syncLogger はバッファされたログを書き出します。
// clibase はエラー時に os.Exit するため、defer ではなく cobra の終了処理から呼び出します。
func syncLogger() {
	_ = appLogger.Sync()
}

// --- エントリポイント ---

// Execute は、ルートコマンドを実行するメイン関数です。clibaseのExecuteを使用する。
func Execute() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "設定の読み込みエラー: %v\n", err)
		os.Exit(1)
	}
	appConfig = cfg
	cobra.OnFinalize(syncLogger)

	clibase.Execute(
		appName,
		addAppPersistentFlags,
		initAppPreRunE,
		compareCmd,
		diffCmd,
		fetchCmd,
		pairsCmd,
	)
}

package cmd

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shouni/go-web-diff/internal/pipeline"
	"github.com/shouni/go-web-diff/pkg/types"
)

var (
	oldURL string
	newURL string
)

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "2つのURLの表示テキストを比較し、差分と類似度を表示します",
	Long:  `--old と --new で指定した2つのページを取得し、旧のみ・新のみ・共通の単語列と類似度を表示します。`,
	Args:  cobra.NoArgs,

	RunE: func(cmd *cobra.Command, args []string) error {
		processedOld, err := normalizeURLArg(oldURL)
		if err != nil {
			return fmt.Errorf("URLの処理エラー (--old): %w", err)
		}
		processedNew, err := normalizeURLArg(newURL)
		if err != nil {
			return fmt.Errorf("URLの処理エラー (--new): %w", err)
		}
		appLogger.Info("比較対象URL", zap.String("old", processedOld), zap.String("new", processedNew))

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		result, err := pipeline.ComparePair(ctx, appConfig, processedOld, processedNew, appLogger)
		if err != nil {
			return fmt.Errorf("比較パイプラインの実行エラー: %w", err)
		}

		fmt.Println("--- 比較結果 ---")
		for i, v := range result.Columns() {
			fmt.Printf("%s: %s\n", types.ResultHeaders[i], v)
		}
		fmt.Println("-----------------------")
		return nil
	},
}

func init() {
	diffCmd.Flags().StringVar(&oldURL, "old", "", "旧ページのURL")
	diffCmd.Flags().StringVar(&newURL, "new", "", "新ページのURL")

	_ = diffCmd.MarkFlagRequired("old")
	_ = diffCmd.MarkFlagRequired("new")
}

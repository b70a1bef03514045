package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shouni/go-web-diff/internal/pipeline"
	"github.com/shouni/go-web-diff/pkg/compare"
	"github.com/shouni/go-web-diff/pkg/diff"
	"github.com/shouni/go-web-diff/pkg/report"
	"github.com/shouni/go-web-diff/pkg/table"
)

// compare コマンドのフラグ変数
var (
	inputPath   string
	outputPath  string
	concurrency int
	oldColumn   string
	newColumn   string
	wordLimit   int
)

// defaultOutputPath は入力ファイル名に _result を付けた出力パスを返します。
func defaultOutputPath(input string) string {
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + "_result" + ext
}

// runComparePipeline は、表の読み込みから比較・書き出しまでを実行するメインロジックです。
func runComparePipeline(ctx context.Context, in, out string) error {
	runID := uuid.NewString()
	logger := appLogger.With(zap.String("run_id", runID))

	sheet, err := table.Read(in)
	if err != nil {
		return err
	}
	pairs, err := sheet.Pairs(oldColumn, newColumn)
	if err != nil {
		return err
	}
	logger.Info("入力ファイルを読み込みました", zap.String("input", in), zap.Int("rows", len(pairs)))

	f := GetGlobalFetcher()
	if f == nil {
		return fmt.Errorf("HTTPクライアントが初期化されていません。rootコマンドのPreRunを確認してください")
	}

	cfg := appConfig
	cfg.Concurrency = concurrency
	cfg.WordLimit = wordLimit
	comparator, err := pipeline.NewComparator(cfg, f, logger, compare.WithObserver(report.NewProgress(logger)))
	if err != nil {
		return err
	}

	start := time.Now()
	results, runErr := comparator.CompareAll(ctx, pairs)

	// 中断された場合でも、処理済みの行を含めて結果を書き出す
	merged, err := sheet.AppendResults(results)
	if err != nil {
		return err
	}
	if err := table.Write(out, merged); err != nil {
		return err
	}
	logger.Info("結果を書き出しました", zap.String("output", out), zap.Duration("elapsed", time.Since(start)))

	fmt.Println("--- 比較結果 (プレビュー) ---")
	report.RenderPreview(os.Stdout, results, report.DefaultPreviewRows)
	fmt.Println(report.Summarize(results))

	if runErr != nil {
		return fmt.Errorf("比較処理が中断されました: %w", runErr)
	}
	return nil
}

// applyConfigDefaults は、明示されなかったフラグに .env / 環境変数の値を適用します。
func applyConfigDefaults(cmd *cobra.Command) {
	flags := cmd.Flags()
	if !flags.Changed("concurrency") {
		concurrency = appConfig.Concurrency
	}
	if !flags.Changed("limit") {
		wordLimit = appConfig.WordLimit
	}
	if !flags.Changed("old-column") {
		oldColumn = appConfig.OldColumn
	}
	if !flags.Changed("new-column") {
		newColumn = appConfig.NewColumn
	}
}

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "表ファイルのURLペアを並列に取得し、テキストの差分を書き出します",
	Long: `Excel (.xlsx) または CSV の各行にある新旧URLを取得して表示テキストを比較し、
元の列の後ろに取得ステータス・差分・類似度の列を追加したファイルを書き出します。`,
	Args: cobra.NoArgs,

	RunE: func(cmd *cobra.Command, args []string) error {
		applyConfigDefaults(cmd)
		if concurrency < 1 || concurrency > compare.MaxConcurrency {
			return fmt.Errorf("同時実行数は1〜%dで指定してください: %d", compare.MaxConcurrency, concurrency)
		}
		if wordLimit < 1 {
			return fmt.Errorf("出力語数の上限は1以上で指定してください: %d", wordLimit)
		}

		out := outputPath
		if out == "" {
			out = defaultOutputPath(inputPath)
		}

		// Ctrl+C で中断した場合も、それまでの結果は書き出す
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		if err := runComparePipeline(ctx, inputPath, out); err != nil {
			return fmt.Errorf("比較パイプラインの実行エラー: %w", err)
		}
		return nil
	},
}

func init() {
	compareCmd.Flags().StringVarP(&inputPath, "input", "i", "", "URLペアを含む入力ファイル (.xlsx / .csv)")
	compareCmd.Flags().StringVarP(&outputPath, "output", "o", "", "結果の出力先 (省略時は <入力名>_result.<拡張子>)")
	compareCmd.Flags().IntVarP(&concurrency, "concurrency", "c", compare.DefaultMaxConcurrency,
		fmt.Sprintf("最大並列実行数 (1〜%d)", compare.MaxConcurrency))
	compareCmd.Flags().StringVar(&oldColumn, "old-column", table.DefaultOldColumn, "旧URLの列名")
	compareCmd.Flags().StringVar(&newColumn, "new-column", table.DefaultNewColumn, "新URLの列名")
	compareCmd.Flags().IntVar(&wordLimit, "limit", diff.DefaultWordLimit, "差分列ごとの最大出力語数")

	_ = compareCmd.MarkFlagRequired("input")
}

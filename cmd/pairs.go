package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shouni/go-web-diff/pkg/feed"
	"github.com/shouni/go-web-diff/pkg/table"
)

var (
	oldFeedURL string
	newFeedURL string
	pairsOut   string
)

// runPairsPipeline は、2つのフィードを取得してパスが一致するリンクを組み合わせ、表として書き出します。
func runPairsPipeline(ctx context.Context, parser *feed.Parser, oldFeed, newFeed, out string) (int, error) {
	oldLinks, err := parser.FetchLinks(ctx, oldFeed)
	if err != nil {
		return 0, fmt.Errorf("旧フィードの処理エラー (URL: %s): %w", oldFeed, err)
	}
	newLinks, err := parser.FetchLinks(ctx, newFeed)
	if err != nil {
		return 0, fmt.Errorf("新フィードの処理エラー (URL: %s): %w", newFeed, err)
	}

	pairs := feed.MatchByPath(oldLinks, newLinks)
	appLogger.Info("フィードのリンクを照合しました",
		zap.Int("old_links", len(oldLinks)),
		zap.Int("new_links", len(newLinks)),
		zap.Int("pairs", len(pairs)),
	)

	sheet := &table.Sheet{Header: []string{table.DefaultOldColumn, table.DefaultNewColumn}}
	for _, p := range pairs {
		sheet.Rows = append(sheet.Rows, []string{p.OldURL, p.NewURL})
	}
	if err := table.Write(out, sheet); err != nil {
		return 0, err
	}
	return len(pairs), nil
}

var pairsCmd = &cobra.Command{
	Use:   "pairs",
	Short: "新旧2つのRSS/Atomフィードから、パスが一致するURLペアの表を作成します",
	Long:  `新旧サイトのフィードを取得し、パス（とクエリ）が一致する記事リンクを組み合わせて、compare コマンドの入力になる表を書き出します。`,
	Args:  cobra.NoArgs,

	RunE: func(cmd *cobra.Command, args []string) error {
		oldFeed, err := normalizeURLArg(oldFeedURL)
		if err != nil {
			return fmt.Errorf("URLの処理エラー (--old-feed): %w", err)
		}
		newFeed, err := normalizeURLArg(newFeedURL)
		if err != nil {
			return fmt.Errorf("URLの処理エラー (--new-feed): %w", err)
		}

		f := GetGlobalFetcher()
		if f == nil {
			return fmt.Errorf("HTTPクライアントが初期化されていません。rootコマンドのPreRunを確認してください")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		n, err := runPairsPipeline(ctx, feed.NewParser(f), oldFeed, newFeed, pairsOut)
		if err != nil {
			return fmt.Errorf("フィード照合パイプラインの実行エラー: %w", err)
		}

		fmt.Printf("完了: %d 件のURLペアを %s に書き出しました\n", n, pairsOut)
		return nil
	},
}

func init() {
	pairsCmd.Flags().StringVar(&oldFeedURL, "old-feed", "", "旧サイトのフィード (RSS/Atom) URL")
	pairsCmd.Flags().StringVar(&newFeedURL, "new-feed", "", "新サイトのフィード (RSS/Atom) URL")
	pairsCmd.Flags().StringVarP(&pairsOut, "output", "o", "pairs.csv", "出力先 (.xlsx / .csv)")

	_ = pairsCmd.MarkFlagRequired("old-feed")
	_ = pairsCmd.MarkFlagRequired("new-feed")
}

package cmd

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var fetchURL string

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "指定されたURLを取得し、抽出した表示テキストを表示します",
	Long:  `比較時と同じリトライ・抽出処理で1つのURLを取得し、取得ステータスと表示テキスト（または失敗理由）を表示します。`,
	Args:  cobra.NoArgs,

	RunE: func(cmd *cobra.Command, args []string) error {
		processedURL, err := normalizeURLArg(fetchURL)
		if err != nil {
			return fmt.Errorf("URLの処理エラー: %w", err)
		}

		f := GetGlobalFetcher()
		if f == nil {
			return fmt.Errorf("HTTPクライアントが初期化されていません。rootコマンドのPreRunを確認してください")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		outcome := f.Fetch(ctx, processedURL)
		fmt.Printf("URL: %s\n", processedURL)
		fmt.Printf("ステータス: %s\n", outcome.Status())
		if !outcome.OK() {
			fmt.Printf("エラー: %s\n", outcome.Reason())
			return nil
		}

		fmt.Println("--- 抽出されたテキスト ---")
		fmt.Println(outcome.Text())
		fmt.Println("-----------------------")
		return nil
	},
}

func init() {
	fetchCmd.Flags().StringVarP(&fetchURL, "url", "u", "", "取得対象のURL")
	_ = fetchCmd.MarkFlagRequired("url")
}

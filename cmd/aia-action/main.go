// Command aia-action は動画レビューダッシュボードのAPIサーバー。
package main

import (
	"fmt"
	"os"

	"github.com/JoaoVitorSD/aia-action/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "aia-action: %v\n", err)
		os.Exit(1)
	}
}

// Command cinelist は映画ウォッチリストのAPIサーバー、ワーカー、CLIクライアントを起動する。
package main

import (
	"fmt"
	"os"

	"github.com/hitoshi/cinelist/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "cinelist: %v\n", err)
		os.Exit(1)
	}
}

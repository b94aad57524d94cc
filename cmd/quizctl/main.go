// Command quizctl manages a quiz collection from the command line.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/starquake/quizbook/cmd/quizctl/app"
)

func main() {
	ctx := context.Background()
	if err := app.Run(ctx, os.Args[1:], os.Getenv, os.Stdin, os.Stdout, os.Stderr); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "quizctl: %v\n", err)
		os.Exit(1)
	}
}

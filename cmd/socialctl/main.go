// socialctl drives a socialgate deployment from the command line: connect
// accounts, renew credentials and publish posts.
package main

import (
	"fmt"
	"os"

	"github.com/gsarma/socialgate/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"transfer-dapp-api/internal/cli"
	"transfer-dapp-api/internal/fault"
)

func main() {
	if err := cli.NewRootCmd().ExecuteContext(context.Background()); err != nil {
		var f *fault.Fault
		if errors.As(err, &f) {
			fmt.Fprintf(os.Stderr, "Error: %s (%v)\n", f.UserMessage(), f.Err)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

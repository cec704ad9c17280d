package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/homeserver/internal/hsctl"
)

func main() {
	if err := hsctl.NewRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "hsctl: %v\n", err)
		os.Exit(1)
	}
}

package main

import (
	"errors"
	"fmt"
	"os"
)

var (
	version = "dev"
)

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		var exit exitError
		if errors.As(err, &exit) {
			os.Exit(exit.code)
		}
		fmt.Fprintln(os.Stderr, errorText(err.Error()))
		os.Exit(1)
	}
}

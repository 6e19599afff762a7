package main

import (
	"fmt"
	"os"

	"github.com/bear-san/coffee-shop/cmd/server/root"
)

func main() {
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

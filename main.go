package main

import (
	"os"

	"github.com/praveenlokku/EasyApply/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/mayoristas-py/directory-admin/internal/tools/admincli"
)

func main() {
	if err := admincli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

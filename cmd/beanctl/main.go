package main

import (
	"fmt"
	"os"

	"github.com/GoCodeAlone/beans/cmd/beanctl/cmd"
	_ "github.com/GoCodeAlone/beans/cmd/beanctl/internal/sample"
)

func main() {
	rootCmd := cmd.NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

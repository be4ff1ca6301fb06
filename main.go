package main

import (
	"fmt"
	"os"

	"github.com/oakwood-commons/pageview/cmd"
	"github.com/oakwood-commons/pageview/pkg/logger"
)

func main() {
	exitCode := cmd.ExitOK
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		exitCode = cmd.ExitCode(err)
	}

	logger.Sync()
	if exitCode != cmd.ExitOK {
		os.Exit(exitCode)
	}
}

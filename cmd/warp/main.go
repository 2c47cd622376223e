package main

import (
	"fmt"
	"os"

	"github.com/Frank-III/git-warp/internal/cmd"
	"github.com/Frank-III/git-warp/internal/style"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", style.Fail(), err)
		os.Exit(cmd.ExitCode(err))
	}
}

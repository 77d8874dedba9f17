package main

import (
	"os"

	"github.com/acadterm/timetabler/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

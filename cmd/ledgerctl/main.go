package main

import (
	"fmt"
	"os"

	"fuel-tracker/internal/cli"
)

var version = "dev"

func main() {
	app := cli.NewApp(version, os.Stdin, os.Stdout)
	if err := app.Execute(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

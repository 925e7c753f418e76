package main

import (
	"fmt"
	"os"
)

const usageText = `listsel keeps a selection over a list of items read from a text file.

Usage:
  listsel <command> [flags]

Commands:
  ui        run the interactive list
  apply     apply selection operations to an item file and print the result
  history   show recent selection changes of a list
  config    print configuration (effective or defaults)
  version   print the build version
  help      show help

Apply operations:
  +item     select item (deferred until it exists)
  -item     unselect item
  =item     select only item
  ~value    select the item whose value matches
  @index    select only the item at index (-1 clears)
  !         clear the selection

Examples:
  listsel ui --items ./colors.txt
  listsel apply --items ./colors.txt +red +blue -red
  listsel apply --items ./colors.txt --single @2
  listsel config --scope keybindings --format toml
  listsel history --list colors --limit 20
`

func printUsage() {
	fmt.Fprint(os.Stderr, usageText)
}

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		printUsage()
		return
	}

	wiring := defaultCommandWiring(os.Stdout, os.Stderr)
	commands := buildCommands(wiring)

	switch args[0] {
	case "-h", "--help", "help":
		printUsage()
		return
	}

	runner, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		printUsage()
		os.Exit(2)
	}
	exitOnErr(args[0], runner.Run(args[1:]), wiring.stderr)
}

package main

import "github.com/dgallion1/tocmerge/internal/cli"

func main() {
	cli.Execute()
}

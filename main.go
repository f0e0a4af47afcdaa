package main

import "github.com/brown-library/bdr-scripts/cmd"

func main() {
	cmd.Execute()
}

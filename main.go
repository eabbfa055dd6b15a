package main

import "github.com/ericogr/rs500-logger/cmd"

func main() {
	cmd.Execute()
}

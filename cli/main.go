package main

import (
	"github.com/sk31337/oca/cli/cmd"
)

func main() {
	cmd.Execute()
}

package main

import (
	"github.com/axellelanca/afltracker/cmd"
	_ "github.com/axellelanca/afltracker/cmd/cli"
	_ "github.com/axellelanca/afltracker/cmd/server"
	_ "github.com/axellelanca/afltracker/cmd/worker"
)

func main() {
	cmd.Execute()
}

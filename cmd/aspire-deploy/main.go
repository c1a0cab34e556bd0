package main

import (
	"os"

	"github.com/Azure/aspire-deploy/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}

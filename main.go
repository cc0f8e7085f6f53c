package main

import (
	"github.com/AzielCF/az-insights/cmd"
)

func main() {
	cmd.Execute()
}

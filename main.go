// Package main is the entry point of the kepco-survey CLI.
package main

import (
	"os"

	"github.com/jaajung-kjs/kepco-survey/cmd"
	"github.com/jaajung-kjs/kepco-survey/internal/contract"
	"github.com/jaajung-kjs/kepco-survey/internal/store"
)

func main() {
	err := cmd.Execute()
	store.CloseStores()
	if err != nil {
		contract.LogWarn("kepco-survey", err)
		os.Exit(1)
	}
}

package main

import (
	"golang.org/x/tools/go/analysis/singlechecker"

	"feedloop.app/triage/tools/linters/enumvalidator"
)

func main() {
	singlechecker.Main(enumvalidator.Analyzer)
}

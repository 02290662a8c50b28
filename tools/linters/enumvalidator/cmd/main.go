package main

import (
	"golang.org/x/tools/go/analysis/singlechecker"

	"releaseguard.app/guard/tools/linters/enumvalidator"
)

func main() {
	singlechecker.Main(enumvalidator.Analyzer)
}

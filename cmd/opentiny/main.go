package main

import (
	"context"
	_ "embed"

	"github.com/goaux/headline"
	"github.com/takumakei/opentiny-go/generator"
)

//go:embed usage.md
var usage string

var version = "v0.0.0-dev"

func main() {
	generator.Main(context.Background(), generator.Config{
		Use:     "opentiny",
		Short:   headline.Get(usage),
		Long:    usage,
		Version: version,
	})
}

package main

import (
	"log/slog"

	"github.com/mediscribe/mediscribe_backend/cmd"
	"github.com/mediscribe/mediscribe_backend/pkg/logs"
)

func main() {
	slog.SetDefault(logs.Default())
	cmd.Execute()
}

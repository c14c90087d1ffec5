package main

import (
	"postlens/cmd/cmd"
	"postlens/internal/logger"
)

func main() {
	logger.Init()
	cmd.Execute()
}

package main

import (
	"github.com/humanbelnik/pokerboard/internal/app"
	"github.com/humanbelnik/pokerboard/internal/config"
)

func main() {
	app.Go(config.Load())
}

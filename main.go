package main

import (
	"media-pipeline-service/app"
)

func main() {
	app.Run(app.ResolveConfigPath())
}

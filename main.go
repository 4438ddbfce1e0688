package main

import (
	"github.com/m1stadev/ios-beta-api/cmd"
	"github.com/m1stadev/ios-beta-api/internal"
	"github.com/m1stadev/ios-beta-api/internal/config"
)

func init() {
	config.InitConfig()
	config.InitViper()
	internal.InitLogging()
}
func main() {
	cmd.Execute()
}

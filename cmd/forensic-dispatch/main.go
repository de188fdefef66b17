package main

import (
	"os"

	"github.com/turbot/forensic-dispatch/logging"
)

func main() {
	logging.Initialize("cli")
	os.Exit(Execute())
}

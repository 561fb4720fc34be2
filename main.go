package main

import (
	"os"

	"github.com/AnyUserName/imgconv/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}

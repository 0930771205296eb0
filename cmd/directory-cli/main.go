// cmd/directory-cli/main.go
package main

import (
	"os"

	"visa-directory/cmd/directory-cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

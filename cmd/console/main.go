package main

import "github.com/jrsteele09/go-admin-console/cmd/console/cmd"

func main() {
	cmd.Execute()
}

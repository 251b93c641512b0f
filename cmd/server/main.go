package main

import "github.com/evently-app/server/cmd/server/cmd"

func main() {
	cmd.Execute()
}

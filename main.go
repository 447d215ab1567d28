package main

import "github.com/jorundl/costofliving-etl/cmd"

func main() {
	cmd.Execute()
}

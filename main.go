package main

import "dockhand/cmd"

func main() {
	cmd.Execute()
}

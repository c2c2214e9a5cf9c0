package main

import "drive-distribution/cmd"

func main() {
	cmd.Execute()
}

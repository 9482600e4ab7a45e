package main

import "github.com/opswarden/warden/cmd"

func main() {
	cmd.Execute()
}

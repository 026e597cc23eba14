package main

import "github.com/oshokin/room-monitor/cmd/room-monitor/cmd"

func main() {
	cmd.Execute()
}

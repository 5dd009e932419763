package main

import "skidoodle/now-playing/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/vhruby/smart-album/cmd"

func main() {
	cmd.Execute()
}

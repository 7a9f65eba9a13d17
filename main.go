package main

import "github.com/user/policyrisk/cmd"

func main() {
	cmd.Execute()
}

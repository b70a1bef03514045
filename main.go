package main

import "github.com/shouni/go-web-diff/cmd"

func main() {
	cmd.Execute()
}

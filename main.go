package main

import "github.com/Ace30/insightmate/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/developia-II/storeblog-backend/cmd/api/commands"

func main() {
	commands.Execute()
}

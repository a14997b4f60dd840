package main

import "bookslicer/cmd"

func main() {
	cmd.Execute()
}

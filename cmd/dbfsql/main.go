package main

import "github.com/nao1215/dbfsql/cmd/dbfsql/cmd"

func main() {
	cmd.Execute()
}

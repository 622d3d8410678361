package main

import "github.com/jsphweid/ceol/cmd"

func main() {
	cmd.Execute()
}

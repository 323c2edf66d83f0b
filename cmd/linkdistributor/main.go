package main

import "github.com/dd0wney/linkdistributor/cmd/linkdistributor/cmd"

func main() {
	cmd.Execute()
}

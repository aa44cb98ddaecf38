package main

import "github.com/KaramelBytes/surveyfa/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/KaramelBytes/tabsift/cmd"

func main() {
	cmd.Execute()
}

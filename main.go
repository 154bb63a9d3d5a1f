/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "tgbridge/cmd"

func main() {
	cmd.Execute()
}

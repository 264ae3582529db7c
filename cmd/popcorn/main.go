// Package main 是 Popcorn CLI 的入口点
package main

import "github.com/AmrElDessouki22/popcorn-ai/internal/cli/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/codeready-toolchain/toolchain-cicd/pubspec-check/cmd"

func main() {
	cmd.Execute()
}

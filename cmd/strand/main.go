// Package main provides the Strand runtime CLI.
package main

func main() {
	Execute()
}

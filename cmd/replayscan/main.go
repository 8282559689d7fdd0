// Package main is the entry point for the replayscan CLI, which reads the
// training HUD of fighting game replays and stores what it finds.
package main

func main() {
	Execute()
}

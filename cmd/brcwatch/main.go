// Command brcwatch watches the transaction broadcaster's ZeroMQ feeds, and
// can stand in for the broadcaster or submit transactions to it.
package main

import "os"

func main() {
	os.Exit(Execute())
}

// nsctl inspects and edits a node's namespace offline, working directly on
// its description directory. It also mints operator tokens for the daemon's
// write endpoints.
package main

func main() {
	execute()
}

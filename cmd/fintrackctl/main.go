// Command fintrackctl is the operator CLI: user management, reports,
// forecasts, statement imports and the inbox watcher.
package main

func main() {
	Execute()
}

// Command agentcoord runs and inspects multi-agent coordination scenarios.
package main

func main() {
	Execute()
}

// tripcheck computes trip feasibility verdicts and explains the impact of
// trip edits.
package main

import "github.com/ppiankov/tripcheck/internal/cli"

func main() {
	cli.Execute()
}

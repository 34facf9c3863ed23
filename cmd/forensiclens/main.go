// Command forensiclens analyzes images for manipulation using nine
// forensic detection techniques.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

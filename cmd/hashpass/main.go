// Command hashpass prints the bcrypt hash of a password, for use as the
// AUTH_PASSWORD_HASH configuration value.
package main

import (
	"fmt"
	"os"

	"tangent-backend/internal/auth"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: hashpass <password>")
		os.Exit(2)
	}
	hash, err := auth.HashPassword(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}

// tokenhash prints the bcrypt hash of a console token for the
// [console] token_hash setting.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	var token string
	if len(os.Args) > 1 {
		token = os.Args[1]
	} else {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(os.Stderr, "Usage: tokenhash <token>  (or pipe the token on stdin)")
			os.Exit(1)
		}
		token = strings.TrimRight(line, "\r\n")
	}
	if token == "" {
		fmt.Fprintln(os.Stderr, "empty token")
		os.Exit(1)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(string(hash))
}

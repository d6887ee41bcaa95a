// Command jwtsecret prints a new signing secret in the format JWT_SECRET
// expects.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/aussiebroadwan/dirauth/pkg/cryptox"
)

func main() {
	size := flag.Int("bytes", cryptox.SecretSize256, "secret length in bytes")
	flag.Parse()

	secret, err := cryptox.GenerateHexSecret(*size)
	if err != nil {
		log.Fatalf("failed to generate secret: %v", err)
	}
	fmt.Println(secret)
}

// Command tokengen mints bearer tokens for POST /api/messages.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GlebRadaev/courierstats/pkg/auth"
)

func main() {
	secret := flag.String("k", os.Getenv("API_SECRET"), "webhook signing secret")
	source := flag.String("source", "relay", "name of the transport the token is issued to")
	ttl := flag.Duration("ttl", 30*24*time.Hour, "token lifetime")
	flag.Parse()

	token, err := auth.NewJWTService(*secret).GenerateJWT(*source, time.Now().Add(*ttl))
	if err != nil {
		log.Fatal().Err(err).Msg("Can't generate token")
	}
	fmt.Println(token)
}

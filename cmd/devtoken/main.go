package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/charismabi/handson/internal/auth"
)

func main() {
	_ = godotenv.Load()

	var (
		userID = flag.Int("user", 1, "user_id gravado no token")
		roles  = flag.String("roles", "super_admin", "papéis separados por vírgula")
		ttl    = flag.Duration("ttl", time.Hour, "validade do token")
	)
	flag.Parse()

	secret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if len(secret) < 32 {
		fmt.Fprintln(os.Stderr, "JWT_SECRET deve ter pelo menos 32 caracteres")
		os.Exit(1)
	}

	var list []string
	for _, r := range strings.Split(*roles, ",") {
		if r = strings.TrimSpace(r); r != "" {
			list = append(list, r)
		}
	}
	if len(list) == 0 {
		fmt.Fprintln(os.Stderr, "usage: devtoken --roles viewer[,adm_access]")
		os.Exit(1)
	}

	token, err := auth.NewJWTManager(secret, *ttl).GenerateAccessToken(*userID, list[0], list[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "token error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}

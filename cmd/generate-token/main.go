// generate-token mints the credentials the backend expects: a bearer JWT
// for API calls and, with -totp, the current TOTP code for the privileged
// retry endpoints.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
)

func main() {
	var (
		subject  = flag.String("subject", "zkpay-sdk", "JWT subject")
		ttl      = flag.Duration("ttl", 24*time.Hour, "token lifetime")
		withTOTP = flag.Bool("totp", false, "also print the current TOTP code")
	)
	flag.Parse()

	secret := os.Getenv("ZKPAY_AUTH_SECRET")
	if secret == "" {
		fmt.Fprintln(os.Stderr, "ZKPAY_AUTH_SECRET not set")
		os.Exit(1)
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub": *subject,
		"iat": now.Unix(),
		"exp": now.Add(*ttl).Unix(),
		"jti": uuid.NewString(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to sign token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Bearer token:")
	fmt.Println(token)
	fmt.Printf("Expires: %s\n", now.Add(*ttl).Format(time.RFC3339))

	if *withTOTP {
		totpSecret := os.Getenv("ZKPAY_TOTP_SECRET")
		if totpSecret == "" {
			fmt.Fprintln(os.Stderr, "ZKPAY_TOTP_SECRET not set")
			os.Exit(1)
		}
		code, err := totp.GenerateCode(totpSecret, time.Now())
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to generate TOTP code: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("TOTP code: %s (valid ~30s)\n", code)
	}
}

// Command authcore-keygen generates the key material an authcore deployment
// needs: an Ed25519 key pair in PEM for access/refresh tokens and a random
// 32-byte secret for MFA challenge tokens.
//
// Usage:
//
//	authcore-keygen [-dir .]
//
// It writes token_private.pem and token_public.pem into the target
// directory and prints the MFA secret to stdout as base64.
package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

func main() {
	dir := flag.String("dir", ".", "directory for the PEM files")
	flag.Parse()

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		log.Fatal("generate key pair:", err)
	}

	privDER, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		log.Fatal("marshal private key:", err)
	}
	pubDER, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		log.Fatal("marshal public key:", err)
	}

	privPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER})
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})

	privPath := filepath.Join(*dir, "token_private.pem")
	pubPath := filepath.Join(*dir, "token_public.pem")

	if err := os.WriteFile(privPath, privPEM, 0o600); err != nil {
		log.Fatal(err)
	}
	if err := os.WriteFile(pubPath, pubPEM, 0o644); err != nil {
		log.Fatal(err)
	}

	mfaSecret := make([]byte, 32)
	if _, err := rand.Read(mfaSecret); err != nil {
		log.Fatal("generate MFA secret:", err)
	}

	fmt.Println("wrote", privPath)
	fmt.Println("wrote", pubPath)
	fmt.Println("mfa secret (base64):", base64.StdEncoding.EncodeToString(mfaSecret))
}

// token emite un JWT de desarrollo para probar la API localmente.
//
// Uso: go run ./cmd/token -user u-1 -name "M. Santos" -role manager
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/jhoicas/supply-ledger/pkg/config"
	"github.com/jhoicas/supply-ledger/pkg/jwt"
)

func main() {
	user := flag.String("user", "dev-user", "user_id del actor")
	name := flag.String("name", "", "nombre que queda en created_by")
	role := flag.String("role", jwt.RoleStaff, "admin | manager | staff | viewer")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cargar configuración: %v\n", err)
		os.Exit(1)
	}
	tok, err := jwt.Generate(cfg.JWT.Secret, jwt.Actor{UserID: *user, Name: *name, Role: *role}, cfg.JWT.Issuer, cfg.JWT.Expiration)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generar token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(tok)
}

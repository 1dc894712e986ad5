package main

import (
	"fmt"
	"log"
	"os"

	"railpay/internal/config"
	"railpay/internal/models"
	"railpay/internal/utils"
)

func main() {
	_ = config.LoadEnv()

	operatorID := os.Getenv("OPERATOR_ID")
	if operatorID == "" {
		log.Fatal("OPERATOR_ID must be set in environment")
	}
	role := config.GetEnv("OPERATOR_ROLE", models.RoleOperator)
	if role != models.RoleOperator && role != models.RoleAdmin {
		log.Fatalf("OPERATOR_ROLE must be %q or %q", models.RoleOperator, models.RoleAdmin)
	}
	ttl := config.GetDurationEnv("OPERATOR_TOKEN_TTL", config.DefaultTokenTTL)

	token, err := utils.GenerateToken(config.GetEnv("JWT_SECRET", config.DefaultJWTSecret), &models.UserClaims{
		UserID: operatorID,
		Role:   role,
	}, ttl)
	if err != nil {
		log.Fatal("Failed to sign token:", err)
	}
	fmt.Println(token)
}

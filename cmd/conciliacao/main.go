// cmd/conciliacao/main.go
package main

import (
	"log"
	"os"

	"conciliacao-service/internal/api/handlers"
	"conciliacao-service/internal/api/responses"
	"conciliacao-service/internal/core/conciliacao"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Print("Arquivo .env não encontrado, prosseguindo com variáveis de ambiente")
	}

	responses.InitLogger()

	conciliacaoService := conciliacao.NewService()
	conciliacaoHandler := handlers.NewConciliacaoHandler(conciliacaoService)

	if modo := os.Getenv("GIN_MODE"); modo != "" {
		gin.SetMode(modo)
	}

	router := gin.Default()

	apiV1 := router.Group("/api/v1")
	{
		// Sem Middleware -- Gateway lida com isso
		apiV1.POST("/conciliar", conciliacaoHandler.HandleConciliacao)
		apiV1.POST("/conciliar/csv", conciliacaoHandler.HandleConciliacaoCSV)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP", "service": "conciliacao-service"})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8084"
	}
	log.Printf("🚀 Conciliação Service (Go) iniciado e escutando na porta %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Falha ao iniciar o servidor de conciliação: ", err)
	}
}

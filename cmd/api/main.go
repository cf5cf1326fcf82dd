package main

import (
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"bookrec/internal/httpx"
	"bookrec/internal/platform/groq"
	"bookrec/internal/platform/openlibrary"
	"bookrec/internal/recommend"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(".env.local")

	serverAddress := getEnv("APP_ADDR", ":8080")
	allowedOrigins := strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:3000"), ",")
	userAgent := getEnv("OPENLIBRARY_USER_AGENT", "bookrec/1.0 (book recommendation service)")
	groqAPIKey := os.Getenv("GROQ_API_KEY")

	olClient := openlibrary.NewClient(userAgent, 5, 2)
	catalog := recommend.NewOpenLibraryCatalog(olClient, time.Hour)

	var gen recommend.TextGenerator
	if groqAPIKey == "" {
		log.Println("GROQ_API_KEY not set, explanations stay template-based")
	} else {
		gen = groq.NewClient(groqAPIKey, groq.NewBudget(14400, 20000))
	}

	service := recommend.NewService(catalog, gen, recommend.Config{})
	handler := recommend.NewHTTPHandler(service, 90*time.Second)

	router := http.NewServeMux()

	router.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("Book Recommendation API is running!"))
	})
	router.HandleFunc("GET /test", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"message": "hello"})
	})
	router.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.HandleFunc("POST /api/recommend", handler.Recommend)
	router.HandleFunc("POST /api/recommend/stream", handler.RecommendStream)

	rateLimit := httpx.NewRateLimitMiddleware(10, 20)

	var root http.Handler = router
	root = rateLimit.Middleware(root)
	root = httpx.RequestSizeLimitMiddleware(1 << 20)(root)
	root = httpx.CORSMiddleware(allowedOrigins)(root)
	root = httpx.SecurityHeadersMiddleware(root)
	root = httpx.RecoveryMiddleware(root)
	root = httpx.AccessLogMiddleware(root)
	root = httpx.RequestIDMiddleware(root)

	httpServer := &http.Server{
		Addr:        serverAddress,
		Handler:     root,
		ReadTimeout: 10 * time.Second,
		// Generous write timeout: the SSE endpoint streams for the lifetime
		// of a recommendation request.
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("Starting server on %s", serverAddress)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
